package ml

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	"ThreatMonitor/internal/config"
	"ThreatMonitor/internal/domain"
	"ThreatMonitor/internal/textmodel"
)

const (
	testFraction = 0.2
	splitSeed    = 42
)

// Store owns the statistical model for the process lifetime: load the
// artifact, else train from labeled data and persist, else fall back.
type Store struct {
	artifactPath string
	trainingPath string
	logger       *slog.Logger

	once   sync.Once
	model  *textmodel.Pipeline
	status domain.ModelStatus
}

// NewStore wires model locations from config.
func NewStore(cfg config.ModelConfig, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		artifactPath: cfg.ArtifactPath,
		trainingPath: cfg.TrainingDataPath,
		logger:       logger,
	}
}

// Model returns the memoized model, initializing it on first use. It never
// returns nil: the fallback model is always available.
func (s *Store) Model() *textmodel.Pipeline {
	s.once.Do(s.init)
	return s.model
}

// Status reports how Model obtained its pipeline.
func (s *Store) Status() domain.ModelStatus {
	s.once.Do(s.init)
	return s.status
}

func (s *Store) init() {
	model, status, err := s.loadOrTrain()
	if err == nil {
		s.model, s.status = model, status
		s.logger.Info("model ready", "status", status, "features", model.Vectorizer.Dim())
		return
	}

	s.logger.Warn("using fallback model", "error", err)
	fallback, ferr := textmodel.Train(textmodel.FallbackExamples(), textmodel.FallbackOptions())
	if ferr != nil {
		// the built-in corpus is fixed; failing here is a programming error
		panic(fmt.Sprintf("train fallback model: %v", ferr))
	}
	s.model, s.status = fallback, domain.ModelFallback
}

func (s *Store) loadOrTrain() (*textmodel.Pipeline, domain.ModelStatus, error) {
	if s.artifactPath != "" && fileExists(s.artifactPath) {
		model, err := textmodel.Load(s.artifactPath)
		if err == nil {
			return model, domain.ModelLoaded, nil
		}
		s.logger.Warn("load model artifact", "path", s.artifactPath, "error", err)
	}

	if s.trainingPath == "" || !fileExists(s.trainingPath) {
		return nil, "", fmt.Errorf("%w: no artifact and no training data", domain.ErrModelUnavailable)
	}

	examples, err := textmodel.LoadTrainingData(s.trainingPath)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", domain.ErrModelUnavailable, err)
	}
	model, err := textmodel.Train(examples, textmodel.DefaultOptions())
	if err != nil {
		return nil, "", fmt.Errorf("%w: train: %v", domain.ErrModelUnavailable, err)
	}

	if s.artifactPath != "" {
		if err := model.Save(s.artifactPath); err != nil {
			s.logger.Warn("persist trained model", "path", s.artifactPath, "error", err)
		}
	}
	return model, domain.ModelTrained, nil
}

// TrainResult is what the offline training command reports.
type TrainResult struct {
	Labels     map[string]int
	TrainSize  int
	TestSize   int
	Evaluation textmodel.Evaluation
}

// TrainFromFile runs the offline training workflow: stratified 80/20 split,
// fit on the train part, evaluate on the held-out part and persist the
// fitted model to artifactPath.
func TrainFromFile(trainingPath, artifactPath string) (TrainResult, error) {
	examples, err := textmodel.LoadTrainingData(trainingPath)
	if err != nil {
		return TrainResult{}, err
	}

	train, test := textmodel.StratifiedSplit(examples, testFraction, splitSeed)
	result := TrainResult{Labels: map[string]int{}, TrainSize: len(train), TestSize: len(test)}
	for _, ex := range examples {
		result.Labels[ex.Label]++
	}

	model, err := textmodel.Train(train, textmodel.DefaultOptions())
	if err != nil {
		return TrainResult{}, fmt.Errorf("train: %w", err)
	}
	if len(test) > 0 {
		result.Evaluation = textmodel.Evaluate(model, test)
	}

	if err := model.Save(artifactPath); err != nil {
		return TrainResult{}, err
	}
	return result, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, fs.ErrNotExist)
}
