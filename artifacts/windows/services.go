package windows

import (
	"github.com/hostforensics/triage/containers/registry"
)

// ServiceEntry is one decoded Windows service/driver registration, read
// from a SYSTEM hive's CurrentControlSet\Services key.
type ServiceEntry struct {
	Name        string
	DisplayName string
	ImagePath   string
	Type        string
	Start       string
}

// servicesRoot is the SYSTEM hive subtree holding one subkey per registered
// service or driver. GetRegistryKeys recurses through the whole subtree
// regardless of pattern, so servicesPattern matches every node visited
// (service keys and their Parameters/Security/Enum children alike); entries
// with none of the four service-defining values set are dropped below.
const servicesRoot = `ControlSet001\Services`
const servicesPattern = `.*`

// serviceTypes and serviceStarts map the REG_DWORD Type/Start values to the
// labels used throughout Windows service tooling (services.msc, sc.exe).
var serviceTypes = map[string]string{
	"1":   "kernel driver",
	"2":   "file system driver",
	"16":  "own process",
	"32":  "share process",
	"272": "own process, interactive",
	"288": "share process, interactive",
}

var serviceStarts = map[string]string{
	"0": "boot",
	"1": "system",
	"2": "automatic",
	"3": "manual",
	"4": "disabled",
}

// ParseServices walks a SYSTEM hive's Services subkeys and decodes each
// service's display name, image path, and start/type classification.
func ParseServices(h *registry.Hive) ([]ServiceEntry, error) {
	keys, err := registry.GetRegistryKeys(h, servicesPattern, servicesRoot)
	if err != nil {
		return nil, err
	}

	entries := make([]ServiceEntry, 0, len(keys))
	for _, key := range keys {
		entry := ServiceEntry{Name: key.Name}
		var sawServiceValue bool
		for _, v := range key.Values {
			switch v.Name {
			case "DisplayName":
				entry.DisplayName = v.String
				sawServiceValue = true
			case "ImagePath":
				entry.ImagePath = v.String
				sawServiceValue = true
			case "Type":
				entry.Type = labelOr(serviceTypes, v.String)
				sawServiceValue = true
			case "Start":
				entry.Start = labelOr(serviceStarts, v.String)
				sawServiceValue = true
			}
		}
		if sawServiceValue {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func labelOr(table map[string]string, key string) string {
	if label, ok := table[key]; ok {
		return label
	}
	return key
}
