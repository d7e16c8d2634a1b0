package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ecoquest/quest-engine/internal/models"
)

// Loader holds the quest catalog and the per-quest verification profiles.
// Both are loaded once at startup; Reload swaps the whole table atomically
// instead of mutating entries in place.
type Loader struct {
	mu       sync.RWMutex
	quests   map[string]*models.Quest
	profiles map[string]*models.VerificationProfile
}

// NewLoader creates an empty catalog loader
func NewLoader() *Loader {
	return &Loader{
		quests:   make(map[string]*models.Quest),
		profiles: make(map[string]*models.VerificationProfile),
	}
}

// LoadFromDir loads all quest YAML files from a directory
func (l *Loader) LoadFromDir(dir string) error {
	slog.Info("loading quest catalog", "dir", dir)

	quests, profiles, err := parseDir(dir)
	if err != nil {
		return err
	}

	l.mu.Lock()
	for id, q := range quests {
		l.quests[id] = q
		l.profiles[id] = profiles[id]
	}
	l.mu.Unlock()

	slog.Info("quest catalog loaded", "count", len(quests))
	return nil
}

// Reload re-reads the directory and replaces the whole catalog atomically.
// On parse failure the previous catalog stays in place.
func (l *Loader) Reload(dir string) error {
	quests, profiles, err := parseDir(dir)
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.quests = quests
	l.profiles = profiles
	l.mu.Unlock()

	slog.Info("quest catalog reloaded", "count", len(quests))
	return nil
}

// Get retrieves a quest definition by ID
func (l *Loader) Get(id string) *models.Quest {
	l.mu.RLock()
	defer l.mu.RUnlock()

	q, ok := l.quests[id]
	if !ok {
		return nil
	}
	cp := *q
	return &cp
}

// GetProfile retrieves the verification profile for a quest ID.
// Returns nil when the quest is unknown; callers surface that as a
// non-retryable "quest not recognized" condition.
func (l *Loader) GetProfile(questID string) *models.VerificationProfile {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.profiles[questID]
}

// List returns all quest definitions sorted by ID
func (l *Loader) List() []*models.Quest {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]*models.Quest, 0, len(l.quests))
	for _, q := range l.quests {
		cp := *q
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Add programmatically adds a quest with its profile
func (l *Loader) Add(quest *models.Quest, profile *models.VerificationProfile) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.quests[quest.ID] = quest
	l.profiles[quest.ID] = profile
}

// parseDir reads every quest YAML file under dir into fresh maps
func parseDir(dir string) (map[string]*models.Quest, map[string]*models.VerificationProfile, error) {
	patterns := []string{"*.yaml", "*.yml"}
	var files []string

	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			continue
		}
		files = append(files, matches...)
	}

	if len(files) == 0 {
		return nil, nil, fmt.Errorf("no quest files found in %s", dir)
	}

	quests := make(map[string]*models.Quest)
	profiles := make(map[string]*models.VerificationProfile)

	for _, file := range files {
		quest, profile, err := parseFile(file)
		if err != nil {
			slog.Warn("failed to load quest file", "file", file, "error", err)
			continue
		}
		quests[quest.ID] = quest
		profiles[quest.ID] = profile
		slog.Info("quest loaded", "id", quest.ID, "title", quest.Title, "category", quest.Category)
	}

	if len(quests) == 0 {
		return nil, nil, fmt.Errorf("no valid quest files in %s", dir)
	}

	return quests, profiles, nil
}

// parseFile loads a single quest definition from a YAML file
func parseFile(path string) (*models.Quest, *models.VerificationProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read file: %w", err)
	}

	var qf questFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Fall back to filename without extension for the ID
	id := qf.ID
	if id == "" {
		base := filepath.Base(path)
		id = strings.TrimSuffix(base, filepath.Ext(base))
	}

	if qf.Title == "" {
		return nil, nil, fmt.Errorf("quest title is required")
	}
	if qf.Total <= 0 {
		return nil, nil, fmt.Errorf("quest total must be positive, got %d", qf.Total)
	}
	if qf.XPReward <= 0 {
		return nil, nil, fmt.Errorf("xp_reward must be positive, got %d", qf.XPReward)
	}

	difficulty := models.Difficulty(qf.Difficulty)
	if !difficulty.Valid() {
		return nil, nil, fmt.Errorf("unknown difficulty %q", qf.Difficulty)
	}

	if len(qf.Verification.ExpectedLabels) == 0 {
		return nil, nil, fmt.Errorf("verification.expected_labels is required")
	}
	if qf.Verification.MinConfidence < 0 || qf.Verification.MinConfidence > 1 {
		return nil, nil, fmt.Errorf("verification.min_confidence must be in [0,1], got %f", qf.Verification.MinConfidence)
	}

	var deadline *time.Time
	if qf.Deadline != "" {
		d, err := time.Parse("2006-01-02", qf.Deadline)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid deadline %q: %w", qf.Deadline, err)
		}
		deadline = &d
	}

	quest := &models.Quest{
		ID:          id,
		Title:       qf.Title,
		Description: qf.Description,
		Total:       qf.Total,
		XPReward:    qf.XPReward,
		Difficulty:  difficulty,
		Category:    qf.Category,
		Deadline:    deadline,
	}

	profile := &models.VerificationProfile{
		QuestID:         id,
		Category:        qf.Verification.Category,
		ExpectedLabels:  qf.Verification.ExpectedLabels,
		MinConfidence:   qf.Verification.MinConfidence,
		ContextualRules: qf.Verification.ContextualRules,
	}

	return quest, profile, nil
}

// --- YAML file structs ---

// questFile represents the YAML structure of a quest file
type questFile struct {
	ID           string           `yaml:"id"`
	Title        string           `yaml:"title"`
	Description  string           `yaml:"description"`
	Total        int              `yaml:"total"`
	XPReward     int              `yaml:"xp_reward"`
	Difficulty   string           `yaml:"difficulty"`
	Category     string           `yaml:"category"`
	Deadline     string           `yaml:"deadline"`
	Verification verificationFile `yaml:"verification"`
}

// verificationFile represents the verification section of a quest file
type verificationFile struct {
	Category        string   `yaml:"category"`
	ExpectedLabels  []string `yaml:"expected_labels"`
	MinConfidence   float64  `yaml:"min_confidence"`
	ContextualRules []string `yaml:"contextual_rules"`
}
