package metrics

// ThemeObserver receives events from the theme asset services.
type ThemeObserver interface {
	RecordHVPServed()
	RecordHVPChange()
	RecordPluginFile(fileArea string, served bool)
}

// NopObserver discards every event.
type NopObserver struct{}

func (NopObserver) RecordHVPServed()              {}
func (NopObserver) RecordHVPChange()              {}
func (NopObserver) RecordPluginFile(string, bool) {}
