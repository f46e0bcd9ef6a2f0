package windows

import (
	"encoding/xml"
	"fmt"
)

// ScheduledTask is the subset of a Windows Task Scheduler XML definition
// relevant to host triage: what runs, as whom, and on what trigger.
type ScheduledTask struct {
	Name    string
	Author  string
	Command string
	Args    string
	Enabled bool
}

type taskDefinitionXML struct {
	RegistrationInfo struct {
		Author string `xml:"Author"`
	} `xml:"RegistrationInfo"`
	Settings struct {
		Enabled bool `xml:"Enabled"`
	} `xml:"Settings"`
	Actions struct {
		Exec []struct {
			Command   string `xml:"Command"`
			Arguments string `xml:"Arguments"`
		} `xml:"Exec"`
	} `xml:"Actions"`
}

// ParseScheduledTask decodes a Task Scheduler XML definition, the on-disk
// format used under %SystemRoot%\System32\Tasks since Windows Vista.
func ParseScheduledTask(name string, raw []byte) (ScheduledTask, error) {
	var def taskDefinitionXML
	if err := xml.Unmarshal(raw, &def); err != nil {
		return ScheduledTask{}, fmt.Errorf("tasks: %s: %w", name, err)
	}

	task := ScheduledTask{
		Name:    name,
		Author:  def.RegistrationInfo.Author,
		Enabled: def.Settings.Enabled,
	}
	if len(def.Actions.Exec) > 0 {
		task.Command = def.Actions.Exec[0].Command
		task.Args = def.Actions.Exec[0].Arguments
	}
	return task, nil
}
