package facade

import (
	"context"
	"encoding/json"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/hostforensics/triage/internal/logging"
)

// ScriptRunner executes a user-supplied filter script against one
// artifact's records, per spec §4.14's output_data dispatch. The actual
// scripting runtime is out of scope (see scripting package doc); a host
// embedding one registers its runner here. Grab falls back to the
// default formatter whenever no runner is registered or the runner
// errors, matching spec §9's "filter-script hook is advisory" policy.
type ScriptRunner func(ctx context.Context, script string, artifact string, records []any) ([]any, error)

// Scripts is the process-wide ScriptRunner hook; nil means no scripting
// runtime is embedded, so FilterScript is always treated as advisory-absent.
var Scripts ScriptRunner

// applyFilter narrows records per desc.FilterName (a doublestar glob
// matched against each record's best-effort "name"-like field) and then,
// if desc.FilterScript is set and a ScriptRunner is registered, hands the
// result to the script. A glob or script error is logged and the input
// is passed through unfiltered, since spec §9 makes both hooks advisory.
func applyFilter(ctx context.Context, artifact string, records []any, filterName, filterScript string) []any {
	out := records
	if filterName != "" {
		matched, err := matchGlob(filterName, out)
		if err != nil {
			logging.Warn("facade: filter_name glob invalid, passing all records through", "pattern", filterName, "error", err)
		} else {
			out = matched
		}
	}
	if filterScript != "" && Scripts != nil {
		scripted, err := Scripts(ctx, filterScript, artifact, out)
		if err != nil {
			logging.Warn("facade: filter_script failed, falling back to default formatter", "artifact", artifact, "error", err)
		} else {
			out = scripted
		}
	}
	return out
}

// matchGlob keeps only records whose extracted name-like field matches
// pattern. A record with no such field is kept, since filter_name narrows
// by name and shouldn't silently drop records it can't evaluate.
func matchGlob(pattern string, records []any) ([]any, error) {
	kept := make([]any, 0, len(records))
	for _, r := range records {
		name, ok := recordName(r)
		if !ok {
			kept = append(kept, r)
			continue
		}
		match, err := doublestar.Match(pattern, name)
		if err != nil {
			return nil, err
		}
		if match {
			kept = append(kept, r)
		}
	}
	return kept, nil
}

// recordName looks for the first of a few common identifying fields
// (path, name, image_path, command) on a record's JSON form.
func recordName(r any) (string, bool) {
	raw, err := json.Marshal(r)
	if err != nil {
		return "", false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return "", false
	}
	for _, key := range []string{"path", "name", "image_path", "command"} {
		if v, ok := fields[key]; ok {
			var s string
			if err := json.Unmarshal(v, &s); err == nil && s != "" {
				return s, true
			}
		}
	}
	return "", false
}
