package media

// ConversionState is the caller-visible status of an engine
type ConversionState struct {
	IsLoading    bool   // codec delegate is warming up
	IsConverting bool   // a conversion is in flight
	Progress     int    // 0-100
	Error        string // last failure message, empty when none
}

// HasError reports whether the last conversion failed
func (s ConversionState) HasError() bool {
	return s.Error != ""
}
