// Package pipeline orchestrates the per-file processing run: extract,
// classify, evaluate, correct, normalize, organize, report. Files are
// independent, so they run on a bounded worker pool; the report aggregator
// is the only shared state. One bad file never aborts the batch; the only
// hard failure is being unable to write the final report.
package pipeline

import (
	"context"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"noteaudit/classify"
	"noteaudit/core"
	"noteaudit/correct"
	"noteaudit/logging"
	"noteaudit/naming"
	"noteaudit/noteparse"
	"noteaudit/organize"
	"noteaudit/pdfextract"
	"noteaudit/report"
	"noteaudit/rules"
)

// Pipeline wires the processing stages together for one run.
type Pipeline struct {
	cfg        *core.Config
	ref        core.ReferenceTables
	log        *logging.Logger
	extractor  *pdfextract.Extractor
	classifier *classify.Classifier
	rules      *rules.Engine
	corrector  *correct.Engine
}

// Result is the outcome of a full run.
type Result struct {
	Report   *report.RunReport
	HTMLPath string
	JSONPath string
}

// New assembles a pipeline from its stages. gen may be nil to disable AI
// goal drafting (goal corrections then surface as failures).
func New(cfg *core.Config, ref core.ReferenceTables, gen correct.GoalGenerator, log *logging.Logger) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		ref:        ref,
		log:        log,
		extractor:  pdfextract.NewExtractor(pdfextract.DefaultConfig()),
		classifier: classify.New(ref),
		rules:      rules.NewEngine(ref),
		corrector:  correct.NewEngine(ref, gen, cfg.AITimeout),
	}
}

// Run processes every PDF directly inside inputDir and writes the report
// artifacts. Per-file work runs on a worker pool of cfg.MaxConcurrent;
// each file's pipeline is independently cancellable through ctx.
func (p *Pipeline) Run(ctx context.Context, inputDir string) (*Result, error) {
	if organize.IsOutputDir(filepath.Base(inputDir)) {
		p.log.Warnw("input folder is named like a pipeline output folder; results will nest another level",
			"folder", inputDir)
	}

	folders, err := organize.Setup(inputDir)
	if err != nil {
		return nil, err
	}

	paths, err := organize.ListPDFs(inputDir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, core.ErrNoInputFiles(inputDir)
	}

	p.log.Info("run started",
		zap.String("folder", inputDir),
		zap.Int("files", len(paths)),
		zap.Int("workers", p.cfg.MaxConcurrent),
	)

	agg := report.NewAggregator()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.MaxConcurrent)

	for _, path := range paths {
		path := path
		g.Go(func() error {
			// Failures are captured in the outcome; workers never return
			// an error so one file cannot cancel the others.
			agg.Add(p.processFile(gctx, path, folders))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	runReport, err := agg.Finalize()
	if err != nil {
		return nil, err
	}

	htmlPath, jsonPath, err := runReport.WriteArtifacts(folders.Reports)
	if err != nil {
		return nil, err
	}

	p.log.Info("run complete",
		zap.Int("total", runReport.Counts.Total),
		zap.Int("corrected", runReport.Counts.Corrected),
		zap.Int("needs_review", runReport.Counts.NeedsReview),
		zap.String("report", htmlPath),
	)

	return &Result{
		Report:   runReport,
		HTMLPath: htmlPath,
		JSONPath: jsonPath,
	}, nil
}

// processFile runs the full pipeline for a single PDF and returns its
// outcome. Every failure path is local to the file.
func (p *Pipeline) processFile(ctx context.Context, path string, folders organize.Folders) core.NoteOutcome {
	baseName := filepath.Base(path)
	log := p.log.With(zap.String("file", baseName))

	outcome := core.NoteOutcome{
		Path:     path,
		FileName: baseName,
	}

	if ctx.Err() != nil {
		outcome.Status = core.StatusSkipped
		outcome.FailureReason = "run cancelled before processing"
		return outcome
	}

	// Classification pre-pass reads only the leading pages.
	head, err := pdfextract.ExtractFirstPages(path, p.cfg.ClassifyPages)
	if err != nil {
		log.Errorw("extraction failed", "error", err)
		outcome.Status = core.StatusFailed
		outcome.FailureReason = err.Error()
		return outcome
	}

	note := core.NewNote(path)
	note.Classification, note.Credential = p.classifier.Classify(head.Text)
	outcome.Classification = note.Classification
	outcome.Credential = note.Credential

	switch note.Classification {
	case core.ClassUnknown:
		log.Info("classification ambiguous; routed to manual review")
		outcome.Status = core.StatusSkipped
		outcome.FailureReason = "could not determine note type"
		return outcome

	case core.ClassMedical:
		return p.processMedical(path, note, folders, outcome, log)

	default:
		return p.processTherapy(ctx, path, note, folders, outcome, log)
	}
}

// processMedical evaluates MDM criteria and files the note. Medical notes
// get findings and recommendations only, never corrections.
func (p *Pipeline) processMedical(path string, note *core.Note, folders organize.Folders, outcome core.NoteOutcome, log *logging.Logger) core.NoteOutcome {
	full, err := p.extractor.Extract(path)
	if err != nil {
		outcome.Status = core.StatusFailed
		outcome.FailureReason = err.Error()
		return outcome
	}
	note.RawText = full.Text

	outcome.Findings, outcome.MDM = p.rules.EvaluateMDM(note.RawText)
	outcome.Status = core.DeriveStatus(outcome.Findings, nil, nil)

	p.fileAway(path, folders.Medical, &outcome, log)
	log.Infow("medical note processed",
		"meets_mdm", outcome.MDM.MeetsModerate,
		"status", string(outcome.Status),
	)
	return outcome
}

// processTherapy runs the full rule evaluation and correction pass.
func (p *Pipeline) processTherapy(ctx context.Context, path string, note *core.Note, folders organize.Folders, outcome core.NoteOutcome, log *logging.Logger) core.NoteOutcome {
	full, err := p.extractor.Extract(path)
	if err != nil {
		outcome.Status = core.StatusFailed
		outcome.FailureReason = err.Error()
		return outcome
	}
	note.RawText = full.Text
	note.Fields = noteparse.Parse(note.RawText)

	outcome.Findings = p.rules.Evaluate(note.Fields)

	needsCorrection := false
	for _, f := range outcome.Findings {
		if f.AutoCorrectable {
			needsCorrection = true
			break
		}
	}

	if needsCorrection {
		result := p.corrector.Correct(ctx, note.Fields, outcome.Findings, note.RawText)
		outcome.Corrections = result.Corrections
		outcome.CorrectionFailures = result.Failures
		if len(result.Corrections) > 0 {
			outcome.CorrectedFields = result.Fields
		}
	}

	outcome.Status = core.DeriveStatus(outcome.Findings, outcome.Corrections, outcome.CorrectionFailures)

	destPath, ok := p.fileAway(path, folders.Therapy, &outcome, log)
	if ok && outcome.Status == core.StatusCorrected {
		if _, err := organize.CopyCorrected(destPath, folders.Processed, outcome.FileName); err != nil {
			log.Warn("corrected copy failed", zap.Error(err))
			outcome.Status = core.StatusNeedsReview
			outcome.FailureReason = err.Error()
		}
	}

	log.Infow("therapy note processed",
		"findings", len(outcome.Findings),
		"corrections", len(outcome.Corrections),
		"status", string(outcome.Status),
	)
	return outcome
}

// fileAway normalizes the file name and moves the file into destDir. A
// naming or move conflict leaves the file in place and is recorded on the
// outcome without changing its compliance status.
func (p *Pipeline) fileAway(path, destDir string, outcome *core.NoteOutcome, log *logging.Logger) (string, bool) {
	destName := outcome.FileName
	if target, kind := naming.Normalize(destName); kind == naming.KindNormalized {
		destName = target
	}

	dest, err := organize.Move(path, destDir, destName)
	if err != nil {
		log.Warn("file move conflict", zap.Error(err))
		outcome.FailureReason = err.Error()
		return path, false
	}

	outcome.FileName = destName
	return dest, true
}
