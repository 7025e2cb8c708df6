package collector

import (
	"context"
	"errors"
	"fmt"

	"fleetpoll/internal/domain"
)

// ArchivedConfig records one configuration written to the archive
type ArchivedConfig struct {
	Host      string `json:"host" yaml:"host"`
	Hostname  string `json:"hostname" yaml:"hostname"`
	Timestamp string `json:"timestamp" yaml:"timestamp"`
}

// BackupReport summarises a backup run
type BackupReport struct {
	RunID    string             `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Archived []ArchivedConfig   `json:"archived" yaml:"archived"`
	Failed   []domain.RawResult `json:"failed,omitempty" yaml:"-"`
}

// BackupConfigs fetches the running configuration of every device and
// archives it under the device's prompt hostname.
//
// Devices that could not be reached or refused the login are listed in the
// report and logged. A session whose prompt held no hostname, a hostname
// already archived by another device in the same run, or an archive write
// failure is returned in the joined error: those mean configuration text
// was lost.
func (c *Collector) BackupConfigs(ctx context.Context, devices []domain.DeviceDescriptor) (BackupReport, error) {
	if c.archiver == nil {
		return BackupReport{}, fmt.Errorf("backup requires an archiver")
	}

	run := domain.NewRun(domain.RunKindBackup, len(devices), c.now())
	report := BackupReport{RunID: run.ID}
	var errs []error

	results := c.dispatch(ctx, devices, CommandRunningConfig)
	timestamp := c.now().Format(BackupTimestampLayout)
	archivedBy := make(map[string]string)

	for _, res := range results {
		switch res.Outcome {
		case domain.OutcomeSuccess:
		case domain.OutcomeMalformedPrompt:
			report.Failed = append(report.Failed, res)
			errs = append(errs, fmt.Errorf("backup of %s: %w", res.Device.Host, res.Err))
			continue
		default:
			report.Failed = append(report.Failed, res)
			c.logFailure(res, "backup skipped")
			continue
		}

		if first, ok := archivedBy[res.Hostname]; ok {
			res.Err = fmt.Errorf("%s already archived from %s: %w", res.Hostname, first, domain.ErrHostnameCollision)
			report.Failed = append(report.Failed, res)
			errs = append(errs, fmt.Errorf("backup of %s: %w", res.Device.Host, res.Err))
			continue
		}

		if err := c.archiver.Store(res.Hostname, timestamp, res.Output); err != nil {
			res.Err = err
			report.Failed = append(report.Failed, res)
			errs = append(errs, fmt.Errorf("backup of %s: %w", res.Hostname, err))
			continue
		}

		archivedBy[res.Hostname] = res.Device.Host
		report.Archived = append(report.Archived, ArchivedConfig{
			Host:      res.Device.Host,
			Hostname:  res.Hostname,
			Timestamp: timestamp,
		})
		c.log.Info().
			Str("host", res.Device.Host).
			Str("hostname", res.Hostname).
			Int("bytes", len(res.Output)).
			Msg("configuration archived")
	}

	run.Finish(len(report.Archived), c.now())
	if err := c.recordRun(ctx, run); err != nil {
		errs = append(errs, err)
	}

	return report, errors.Join(errs...)
}
