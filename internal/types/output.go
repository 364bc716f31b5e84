package types

// UsedToolchain is a liveness entry in a garbage-collection report: a
// referenced toolchain together with the source that references it.
type UsedToolchain struct {
	Label     string              `json:"label" yaml:"label"`
	Toolchain ToolchainDescriptor `json:"-" yaml:"-"`

	// Name is the display form of Toolchain, kept alongside it so the
	// report serializes without custom marshalling.
	Name string `json:"toolchain" yaml:"toolchain"`
}

// GCReport is the result of a garbage-collection analysis. The analyzer
// only classifies; deletion is a separate, explicit step whose outcome
// is recorded in Deleted.
type GCReport struct {
	Used    []UsedToolchain `json:"used" yaml:"used"`
	Unused  []string        `json:"unused" yaml:"unused"`
	Deleted []string        `json:"deleted,omitempty" yaml:"deleted,omitempty"`
}
