package facade

import (
	"context"
	"fmt"

	"github.com/hostforensics/triage/artifacts/plist"
	"github.com/hostforensics/triage/artifacts/sqlite"
	"github.com/hostforensics/triage/artifacts/windows"
	"github.com/hostforensics/triage/containers/mft"
	"github.com/hostforensics/triage/containers/registry"
	"github.com/hostforensics/triage/containers/shellitems"
)

func init() {
	RegisterDefaults()
}

// RegisterDefaults wires every container/artifact parser this repo ships
// into the named Collector registry Grab and scripting.Bindings share.
func RegisterDefaults() {
	Register("mft", collectMFT)
	Register("lnk", collectLNK)
	Register("shellitem", collectShellItem)
	Register("jumplist_automatic", collectAutomaticJumplist)
	Register("jumplist_custom", collectCustomJumplist)
	Register("plist", collectPlist)
	Register("bookmark", collectBookmark)
	Register("shimcache", collectShimCache)
	Register("peresources", collectPEResources)
	Register("scheduledtask", collectScheduledTask)
	Register("userassist", collectUserAssist)
	Register("services", collectServices)
	Register("sqlite_query", collectSQLiteQuery)
}

func collectMFT(_ context.Context, opts Options) (any, error) {
	rec, err := mft.ParseRecord(opts.Raw)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func collectLNK(_ context.Context, opts Options) (any, error) {
	return shellitems.ParseLNK(opts.Raw)
}

func collectShellItem(_ context.Context, opts Options) (any, error) {
	return shellitems.Parse(opts.Raw)
}

func collectAutomaticJumplist(_ context.Context, opts Options) (any, error) {
	entries, err := shellitems.ParseAutomaticJumplist(opts.Raw)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(entries))
	for i, e := range entries {
		out[i] = e
	}
	return out, nil
}

func collectCustomJumplist(_ context.Context, opts Options) (any, error) {
	blobs, err := shellitems.ParseCustomJumplist(opts.Raw)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(blobs))
	for _, b := range blobs {
		lnk, err := shellitems.ParseLNK(b)
		if err != nil {
			continue
		}
		out = append(out, lnk)
	}
	return out, nil
}

func collectPlist(_ context.Context, opts Options) (any, error) {
	return plist.Parse(opts.Raw)
}

func collectBookmark(_ context.Context, opts Options) (any, error) {
	return plist.ParseBookmark(opts.Raw)
}

func collectShimCache(_ context.Context, opts Options) (any, error) {
	entries, err := windows.ParseShimCache(opts.Raw)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(entries))
	for i, e := range entries {
		out[i] = e
	}
	return out, nil
}

func collectPEResources(_ context.Context, opts Options) (any, error) {
	return windows.ParsePEResources(opts.Raw)
}

func collectScheduledTask(_ context.Context, opts Options) (any, error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("facade: scheduledtask requires Options.Name")
	}
	return windows.ParseScheduledTask(opts.Name, opts.Raw)
}

// openHive is shared by the two registry-backed collectors below.
func openHive(opts Options) (*registry.Hive, error) {
	if opts.HivePath == "" {
		return nil, fmt.Errorf("facade: collector requires Options.HivePath")
	}
	return registry.Open(opts.HivePath)
}

func collectUserAssist(_ context.Context, opts Options) (any, error) {
	h, err := openHive(opts)
	if err != nil {
		return nil, err
	}
	defer h.Close()
	entries, err := windows.ParseUserAssist(h)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(entries))
	for i, e := range entries {
		out[i] = e
	}
	return out, nil
}

func collectSQLiteQuery(ctx context.Context, opts Options) (any, error) {
	if opts.HivePath == "" || opts.Query == "" {
		return nil, fmt.Errorf("facade: sqlite_query requires Options.HivePath and Options.Query")
	}
	db, err := sqlite.Open(opts.HivePath)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	rows, err := sqlite.Query(ctx, db, opts.Query, opts.Args...)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = r
	}
	return out, nil
}

func collectServices(_ context.Context, opts Options) (any, error) {
	h, err := openHive(opts)
	if err != nil {
		return nil, err
	}
	defer h.Close()
	entries, err := windows.ParseServices(h)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(entries))
	for i, e := range entries {
		out[i] = e
	}
	return out, nil
}
