package channel

// Source identifies which kind of storefront a channel talks to
type Source string

const (
	// SourceMagento is a Magento 1.x store reached over XML-RPC
	SourceMagento Source = "magento"
	// SourceManual is a channel whose orders are entered by hand
	SourceManual Source = "manual"
	// SourceWebservice is a channel fed by a generic inbound web service
	SourceWebservice Source = "webservice"
)

// IsValid returns true if the source is known
func (s Source) IsValid() bool {
	switch s {
	case SourceMagento, SourceManual, SourceWebservice:
		return true
	}
	return false
}

// String returns the string representation
func (s Source) String() string {
	return string(s)
}

// DisplayName returns a human readable name for the source
func (s Source) DisplayName() string {
	switch s {
	case SourceMagento:
		return "Magento"
	case SourceManual:
		return "Manual"
	case SourceWebservice:
		return "Web Service"
	default:
		return string(s)
	}
}

// AllSources returns every known source
func AllSources() []Source {
	return []Source{SourceMagento, SourceManual, SourceWebservice}
}
