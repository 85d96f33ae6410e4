package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"custodycal/internal/config"
	"custodycal/internal/custody"
	"custodycal/internal/ics"
	"custodycal/internal/loader"
	appLog "custodycal/internal/log"
	"custodycal/internal/metrics"
	"custodycal/internal/model"
	"custodycal/internal/report"
	"custodycal/internal/web"
)

// pipeline loads the input files, computes the custody result and
// publishes it to the output files, the server and the metrics.
type pipeline struct {
	cfg     *config.Config
	loc     *time.Location
	metrics *metrics.Recorder
	server  *web.Server // nil in one-shot mode
	now     func() time.Time

	// Runs are serialized; cron and the initial run may overlap.
	mu sync.Mutex
}

func (p *pipeline) run() (*custody.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	started := p.now()
	res, err := p.compute(started)
	elapsed := p.now().Sub(started)

	events := 0
	if res != nil {
		events = len(res.Events)
	}
	if p.metrics != nil {
		p.metrics.ObserveRun(elapsed, err, events)
	}
	if err != nil {
		appLog.Error("custody computation failed", err, "elapsed", elapsed)
		if p.server != nil {
			p.server.SetError(err, started)
		}
		return nil, err
	}

	if p.server != nil {
		p.server.SetResult(res, started)
	}
	appLog.Info("custody computation finished",
		"elapsed", elapsed,
		"events", events,
		"custodians", res.Summary.Custodians(),
	)
	return res, nil
}

func (p *pipeline) compute(generated time.Time) (*custody.Result, error) {
	engine, err := loader.Load(p.cfg)
	if err != nil {
		return nil, err
	}
	res, err := engine.Compute(custody.Options{Location: p.loc, KeepDays: true})
	if err != nil {
		return nil, err
	}
	if err := p.writeOutputs(res, generated); err != nil {
		return nil, err
	}
	return res, nil
}

func (p *pipeline) writeOutputs(res *custody.Result, generated time.Time) error {
	out := p.cfg.Output
	if path := p.cfg.Resolve(out.ICS); path != "" {
		err := writeFileAtomic(path, func(w io.Writer) error {
			return ics.Write(w, res.Events, ics.Options{Name: out.CalendarName, Stamp: generated})
		})
		if err != nil {
			return fmt.Errorf("write calendar %s: %w", path, err)
		}
		if err := verifyCalendar(path, res.Events); err != nil {
			return fmt.Errorf("verify calendar %s: %w", path, err)
		}
		appLog.Info("calendar written", "path", path, "events", len(res.Events))
	}
	if path := p.cfg.Resolve(out.AuditCSV); path != "" {
		err := writeFileAtomic(path, func(w io.Writer) error {
			return report.WriteAudit(w, res, generated)
		})
		if err != nil {
			return fmt.Errorf("write audit %s: %w", path, err)
		}
		appLog.Info("audit written", "path", path)
	}
	if path := p.cfg.Resolve(out.JSON); path != "" {
		err := writeFileAtomic(path, func(w io.Writer) error {
			return report.WriteJSON(w, report.BuildDocument(res, generated))
		})
		if err != nil {
			return fmt.Errorf("write json %s: %w", path, err)
		}
		appLog.Info("visualization written", "path", path, "days", len(res.Days))
	}
	return nil
}

// verifyCalendar reads a written calendar back and checks that it holds
// exactly the computed events.
func verifyCalendar(path string, events []model.Event) error {
	body, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	parsed, err := ics.Parse(body)
	if err != nil {
		return err
	}
	if len(parsed) != len(events) {
		return fmt.Errorf("read back %d events, wrote %d", len(parsed), len(events))
	}
	for i, ev := range parsed {
		want := events[i]
		if ev.UID != want.UID || !ev.Start.Equal(want.Start) || !ev.End.Equal(want.End) {
			return fmt.Errorf("event %d read back as %s %s-%s, wrote %s %s-%s", i,
				ev.UID, ev.Start.Format(time.DateTime), ev.End.Format(time.DateTime),
				want.UID, want.Start.Format(time.DateTime), want.End.Format(time.DateTime))
		}
	}
	return nil
}

// writeFileAtomic writes via a temp file in the target directory, then
// renames it into place.
func writeFileAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".custodycal-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
