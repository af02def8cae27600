package markers

import (
	"context"
	"fmt"
	"sync"

	"github.com/cbc-energia/fieldops-backend/internal/visits"
	"github.com/cbc-energia/fieldops-backend/pkg/enums"
	pkgerrors "github.com/cbc-energia/fieldops-backend/pkg/errors"
	"github.com/cbc-energia/fieldops-backend/pkg/kv"
	"github.com/cbc-energia/fieldops-backend/pkg/logger"
)

// Style is the display treatment for one marker key.
type Style struct {
	Color string `json:"color"`
	Label string `json:"label"`
}

// Config maps "{TYPE}_{STATUS}" or "{TYPE}_DEFAULT" keys to styles.
type Config map[string]Style

// MapMarker is the presentation projection of a record for the map view.
type MapMarker struct {
	ID          string  `json:"id"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Title       string  `json:"title"`
	Type        string  `json:"type"`
	Color       string  `json:"color"`
	IsCompleted bool    `json:"isCompleted"`
}

var availableColors = []string{
	"blue", "gold", "red", "green", "orange", "yellow", "violet", "grey", "black",
}

func defaultConfig() Config {
	return Config{
		"PROSPECTION_PENDING":  {Color: "blue", Label: "Prospecção (Pendente)"},
		"PROSPECTION_SUCCESS":  {Color: "gold", Label: "Prospecção (Interessado)"},
		"PROSPECTION_FAILED":   {Color: "grey", Label: "Prospecção (Sem Interesse)"},
		"SALE_ATTEMPT_PENDING": {Color: "orange", Label: "Venda (Em andamento)"},
		"SALE_ATTEMPT_SUCCESS": {Color: "green", Label: "Venda (Fechada)"},
		"SALE_ATTEMPT_FAILED":  {Color: "red", Label: "Venda (Perdida)"},
		"INSTALLATION_DEFAULT": {Color: "black", Label: "Instalação"},
		"INSPECTION_DEFAULT":   {Color: "violet", Label: "Vistoria"},
	}
}

// ServiceParams groups dependencies for the marker config service.
type ServiceParams struct {
	Store  kv.Store
	Logger *logger.Logger
}

// Service owns the user-editable marker presentation config. It is a
// pass-through for display styling and never affects record semantics.
type Service interface {
	Hydrate(ctx context.Context) error
	Get() Config
	Update(ctx context.Context, key string, style Style) error
	Reset(ctx context.Context) error
	// StyleFor resolves "{TYPE}_{STATUS}" first, then "{TYPE}_DEFAULT".
	StyleFor(visitType enums.VisitType, status enums.VisitStatus) (Style, bool)
	BuildMarkers(records []visits.VisitRecord) []MapMarker
}

type service struct {
	mu     sync.RWMutex
	store  kv.Store
	logg   *logger.Logger
	config Config
}

// NewService builds a marker config service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &service{
		store:  params.Store,
		logg:   params.Logger,
		config: defaultConfig(),
	}, nil
}

// Hydrate loads the persisted config; absent or unreadable content keeps
// the defaults.
func (s *service) Hydrate(ctx context.Context) error {
	var config Config
	found, err := s.store.Load(ctx, kv.KeyMarkerConfig, &config)
	if err != nil {
		return err
	}
	if !found || len(config) == 0 {
		return nil
	}

	s.mu.Lock()
	s.config = config
	s.mu.Unlock()
	return nil
}

func (s *service) Get() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(Config, len(s.config))
	for key, style := range s.config {
		out[key] = style
	}
	return out
}

func (s *service) Update(ctx context.Context, key string, style Style) error {
	if key == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "marker key is required")
	}
	if style.Label == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "marker label is required")
	}
	if !validColor(style.Color) {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown marker color "+style.Color)
	}

	s.mu.Lock()
	s.config[key] = style
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	return s.store.Save(ctx, kv.KeyMarkerConfig, snapshot)
}

func (s *service) Reset(ctx context.Context) error {
	defaults := defaultConfig()

	s.mu.Lock()
	s.config = defaults
	s.mu.Unlock()

	return s.store.Save(ctx, kv.KeyMarkerConfig, defaults)
}

func (s *service) StyleFor(visitType enums.VisitType, status enums.VisitStatus) (Style, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if style, ok := s.config[fmt.Sprintf("%s_%s", visitType, status)]; ok {
		return style, true
	}
	if style, ok := s.config[fmt.Sprintf("%s_DEFAULT", visitType)]; ok {
		return style, true
	}
	return Style{}, false
}

// BuildMarkers projects records onto map markers using the active config.
// Unstyled combinations fall back to a blue marker labeled by raw type.
func (s *service) BuildMarkers(records []visits.VisitRecord) []MapMarker {
	out := make([]MapMarker, 0, len(records))
	for _, rec := range records {
		style, ok := s.StyleFor(rec.Type, rec.Status)
		if !ok {
			style = Style{Color: "blue", Label: rec.Type.String()}
		}
		out = append(out, MapMarker{
			ID:          rec.ID,
			Lat:         rec.Location.Lat,
			Lng:         rec.Location.Lng,
			Title:       fmt.Sprintf("%s - %s", style.Label, rec.UserName),
			Type:        style.Label,
			Color:       style.Color,
			IsCompleted: rec.Status == enums.VisitStatusCompleted || rec.Status == enums.VisitStatusSuccess,
		})
	}
	return out
}

func (s *service) snapshotLocked() Config {
	out := make(Config, len(s.config))
	for key, style := range s.config {
		out[key] = style
	}
	return out
}

func validColor(color string) bool {
	for _, candidate := range availableColors {
		if candidate == color {
			return true
		}
	}
	return false
}

// AvailableColors lists the palette accepted by Update.
func AvailableColors() []string {
	out := make([]string, len(availableColors))
	copy(out, availableColors)
	return out
}
