package residency

// Status is the residency exposure band
type Status string

const (
	StatusOK      Status = "ok"
	StatusWarning Status = "warning"
	StatusDanger  Status = "danger"
)

// StatusFor classifies a rolling count and its remaining days into one of three bands
func StatusFor(rolling, remaining int) Status {
	switch {
	case rolling >= ResidencyThreshold:
		return StatusDanger
	case remaining < WarningMargin:
		return StatusWarning
	default:
		return StatusOK
	}
}
