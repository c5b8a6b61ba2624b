package enum

// AuthVerdict is a DKIM/DMARC/ARC outcome. The zero value means the mechanism reported nothing recognizable.
type AuthVerdict string

const (
	AuthVerdictUnknown AuthVerdict = ""
	AuthVerdictPass    AuthVerdict = "pass"
	AuthVerdictFail    AuthVerdict = "fail"
	AuthVerdictNone    AuthVerdict = "none"
)

func (v AuthVerdict) String() string {
	return string(v)
}

func (v AuthVerdict) IsKnown() bool {
	return v != AuthVerdictUnknown
}

// Ptr returns nil for an unknown verdict so it persists as NULL.
func (v AuthVerdict) Ptr() *string {
	if !v.IsKnown() {
		return nil
	}
	s := string(v)
	return &s
}
