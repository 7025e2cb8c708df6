package codec

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"fleetpoll/internal/collector"
	"fleetpoll/internal/domain"
)

// TextCodec renders known result types as aligned tables
type TextCodec struct{}

// NewTextCodec creates a new text codec
func NewTextCodec() *TextCodec {
	return &TextCodec{}
}

// Format returns the codec format identifier
func (c *TextCodec) Format() string {
	return "text"
}

// NeighborReport pairs neighbor facts with optional per-device detail
type NeighborReport struct {
	Facts  []domain.CdpNeighborFact `json:"facts" yaml:"facts"`
	Tables []domain.NeighborTable   `json:"tables,omitempty" yaml:"tables,omitempty"`
}

// Export writes v as a table. Unknown types are an error.
func (c *TextCodec) Export(v any, w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	switch v := v.(type) {
	case []domain.CdpNeighborFact:
		writeNeighborFacts(tw, v)
	case NeighborReport:
		writeNeighborFacts(tw, v.Facts)
		for _, t := range v.Tables {
			fmt.Fprintf(tw, "\n%s\nNEIGHBOR\tLOCAL\tREMOTE\n", t.Device)
			for _, r := range t.Records {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", r.DeviceID, r.LocalInterface, r.RemoteInterface)
			}
		}
	case []domain.DeviceIdentityFact:
		fmt.Fprintln(tw, "DEVICE\tADDRESS\tSOFTWARE\tVERSION\tHARDWARE\tENCRYPTION")
		for _, f := range v {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", f.Device, dash(f.Address), f.Software, f.Version, f.Hardware, f.Encryption.Short())
		}
	case collector.BackupReport:
		fmt.Fprintln(tw, "HOST\tHOSTNAME\tRESULT")
		for _, a := range v.Archived {
			fmt.Fprintf(tw, "%s\t%s\tarchived %s\n", a.Host, a.Hostname, a.Timestamp)
		}
		for _, r := range v.Failed {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Device.Host, dash(r.Hostname), r.Outcome)
		}
	case []domain.Run:
		fmt.Fprintln(tw, "RUN\tKIND\tSTARTED\tDURATION\tDEVICES\tSUCCEEDED")
		for _, r := range v {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\n",
				r.ID, r.Kind, r.StartedAt.Local().Format(time.DateTime), runDuration(r), r.Devices, r.Succeeded)
		}
	default:
		return fmt.Errorf("text output not supported for %T", v)
	}

	return tw.Flush()
}

func writeNeighborFacts(w io.Writer, facts []domain.CdpNeighborFact) {
	fmt.Fprintln(w, "DEVICE\tADDRESS\tCDP\tNEIGHBORS")
	for _, f := range facts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", f.Device, dash(f.Address), f.Status, f.Neighbors)
	}
}

func runDuration(r domain.Run) string {
	if r.FinishedAt.IsZero() {
		return "-"
	}
	return r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
