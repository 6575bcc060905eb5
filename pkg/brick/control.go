package brick

import (
	"context"
	"strconv"
	"strings"

	"bricklayers/pkg/errors"
	"bricklayers/pkg/gcode"
)

// Control surface. All methods here may be called concurrently with the
// real-time path; configuration changes are published as a whole snapshot
// and observed before the next intercepted command.

// Config returns the current configuration snapshot.
func (e *Engine) Config() *Config { return e.cfg.Load() }

// Enabled reports whether transformation is currently enabled.
func (e *Engine) Enabled() bool { return e.cfg.Load().Enabled }

// Enable turns transformation on. If a job is already loaded and no
// pre-scan table exists, a catch-up pre-scan of the job stream runs now.
func (e *Engine) Enable() {
	e.updateConfig(func(c *Config) { c.Enabled = true })
	e.log.Info("enabled")

	e.mu.Lock()
	job := e.jobID
	needScan := e.jobActive && e.table == nil && e.source != nil
	src := e.source
	e.mu.Unlock()
	if !needScan {
		return
	}
	if err := e.preScan(context.Background(), src, job); err != nil {
		e.log.WithError(err).Warn("catch-up pre-scan failed; using live classification")
	}
}

// Disable turns transformation off. Takes effect before the next command is
// intercepted; an in-flight decision already computed may still be applied.
func (e *Engine) Disable() {
	e.updateConfig(func(c *Config) { c.Enabled = false })
	e.log.Info("disabled")
}

// SetParameter validates and applies one configuration parameter. Rejected
// values leave the prior configuration fully in effect. An existing
// pre-scan table is not rebuilt; value changes affect live decisions and
// the next job's scan.
func (e *Engine) SetParameter(name, value string) error {
	name = strings.ToLower(strings.TrimSpace(name))
	next := e.cfg.Load().Clone()

	switch name {
	case "enabled":
		b, err := parseBool(name, value)
		if err != nil {
			return err
		}
		next.Enabled = b
	case "z_offset", "z_offset_magnitude":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return errors.ConfigValueError(SectionName, name, "invalid value '"+value+"', expected float")
		}
		next.ZOffset = f
	case "extrusion_multiplier":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return errors.ConfigValueError(SectionName, name, "invalid value '"+value+"', expected float")
		}
		next.ExtrusionMultiplier = f
	case "start_layer":
		n, err := strconv.Atoi(value)
		if err != nil {
			return errors.ConfigValueError(SectionName, name, "invalid value '"+value+"', expected integer")
		}
		next.StartLayer = n
	case "require_feature_markers":
		b, err := parseBool(name, value)
		if err != nil {
			return err
		}
		next.RequireFeatureMarkers = b
	case "inject_missing_z":
		b, err := parseBool(name, value)
		if err != nil {
			return err
		}
		next.InjectMissingZ = b
	case "eligible_feature_tags":
		tags := make(map[gcode.FeatureTag]bool)
		for _, t := range strings.Split(value, ",") {
			t = strings.ToLower(strings.TrimSpace(t))
			if t != "" {
				tags[gcode.FeatureTag(t)] = true
			}
		}
		next.EligibleTags = tags
	default:
		return errors.ConfigOptionError(SectionName, name)
	}

	if err := next.Validate(); err != nil {
		return err
	}
	e.warnOutsideRecommended(next)
	e.storeConfig(next)
	return nil
}

func parseBool(name, value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "yes", "on", "1":
		return true, nil
	case "false", "no", "off", "0":
		return false, nil
	}
	return false, errors.ConfigValueError(SectionName, name, "invalid value '"+value+"', expected boolean")
}

func (e *Engine) warnOutsideRecommended(c *Config) {
	if c.ZOffset < RecommendedZOffsetMin || c.ZOffset > RecommendedZOffsetMax {
		e.log.Warn("z_offset %s outside recommended range %s-%s",
			gcode.FormatFloat(c.ZOffset),
			gcode.FormatFloat(RecommendedZOffsetMin), gcode.FormatFloat(RecommendedZOffsetMax))
	}
	if c.ExtrusionMultiplier < RecommendedMultiplierMin || c.ExtrusionMultiplier > RecommendedMultiplierMax {
		e.log.Warn("extrusion_multiplier %s outside recommended range %s-%s",
			gcode.FormatFloat(c.ExtrusionMultiplier),
			gcode.FormatFloat(RecommendedMultiplierMin), gcode.FormatFloat(RecommendedMultiplierMax))
	}
}

func (e *Engine) updateConfig(mutate func(*Config)) {
	next := e.cfg.Load().Clone()
	mutate(next)
	e.storeConfig(next)
}

func (e *Engine) storeConfig(next *Config) {
	e.cfg.Store(next)
	if e.m != nil {
		v := 0.0
		if next.Enabled {
			v = 1
		}
		e.m.enabled.Set(v)
	}
}

// StartJob resets all per-job state for a new print job. src may be nil
// when the host cannot provide stream read access; pre-scanning is then
// unavailable and the job runs on live classification.
func (e *Engine) StartJob(name string, src StreamSource) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.jobID++
	e.jobActive = true
	e.jobName = name
	e.source = src
	e.table = nil
	e.lastPos = -1
	e.latched = false
	e.layer = 0
	e.classifier = NewClassifier(e.cfg.Load().Markers)
	e.planner.Reset()
	e.movesTotal.Store(0)
	e.movesTransformed.Store(0)
	e.log.WithField("job", name).Info("job started")
}

// EndJob tears down per-job state. Transformation returns to disabled until
// the next explicit enable.
func (e *Engine) EndJob() {
	e.mu.Lock()
	name := e.jobName
	e.jobActive = false
	e.jobName = ""
	e.source = nil
	e.table = nil
	e.mu.Unlock()

	e.updateConfig(func(c *Config) { c.Enabled = false })
	e.log.WithField("job", name).Info("job ended")
}

// PreScan scans the active job's stream and installs the resulting table.
// Playback using the table must not begin until this returns. On failure
// the job falls back to live classification.
func (e *Engine) PreScan(ctx context.Context) error {
	e.mu.Lock()
	src := e.source
	job := e.jobID
	active := e.jobActive
	e.mu.Unlock()
	if !active || src == nil {
		return errors.New(errors.ErrPreScanIO, "no job stream registered for pre-scan")
	}
	return e.preScan(ctx, src, job)
}

func (e *Engine) preScan(ctx context.Context, src StreamSource, job uint64) error {
	r, err := src.Open()
	if err != nil {
		return errors.PreScanError(err, src.Name())
	}
	defer r.Close()

	table, err := NewScanner(e.cfg.Load(), e.log).Scan(ctx, r, src.Name())
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.jobID != job || !e.jobActive {
		// Job changed while scanning; the table belongs to a dead job.
		return errors.New(errors.ErrPreScanIO, "job ended during pre-scan")
	}
	e.table = table
	return nil
}

// SetTable installs a pre-built table for the active job. Used by hosts
// that run the scanner themselves.
func (e *Engine) SetTable(t *PreScanTable) {
	e.mu.Lock()
	e.table = t
	e.mu.Unlock()
}

// Table returns the active pre-scan table, or nil.
func (e *Engine) Table() *PreScanTable {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.table
}

// Status reports engine state for operator tooling, in the printer-object
// status style.
func (e *Engine) Status() map[string]any {
	cfg := e.cfg.Load()
	e.mu.Lock()
	layer := e.layer
	latched := e.latched
	jobName := e.jobName
	jobActive := e.jobActive
	var prescan map[string]any
	if e.table != nil {
		prescan = map[string]any{
			"active": true,
			"points": e.table.Len(),
			"source": e.table.Source,
		}
	} else {
		prescan = map[string]any{"active": false}
	}
	phase := "+"
	if !e.planner.Phase() {
		phase = "-"
	}
	z := e.classifier.State().CurrentZ
	height := e.classifier.State().LayerHeight
	missing := cfg.RequireFeatureMarkers &&
		!e.classifier.State().SawFeatureMarker &&
		e.movesTotal.Load() > 0
	e.mu.Unlock()

	status := map[string]any{
		"enabled":              cfg.Enabled,
		"current_layer":        layer,
		"current_phase":        phase,
		"z_offset":             cfg.ZOffset,
		"extrusion_multiplier": cfg.ExtrusionMultiplier,
		"start_layer":          cfg.StartLayer,
		"moves_total":          e.movesTotal.Load(),
		"moves_transformed":    e.movesTransformed.Load(),
		"current_z":            z,
		"layer_height":         height,
		"job_active":           jobActive,
		"job":                  jobName,
		"prescan":              prescan,
	}
	if missing {
		status["warning"] = "no feature markers observed; transformation inactive"
	}
	if latched {
		status["warning"] = "stream invariant violated; pass-through for remainder of job"
	}
	return status
}
