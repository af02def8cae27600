package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cbc-energia/fieldops-backend/internal/visits"
	"github.com/cbc-energia/fieldops-backend/pkg/config"
	pkgerrors "github.com/cbc-energia/fieldops-backend/pkg/errors"
	"github.com/cbc-energia/fieldops-backend/pkg/logger"
)

// Fallback texts shown when the model call fails. Generation is
// best-effort: a failure substitutes fixed copy and is never retried
// automatically.
const (
	analyzeFallback = "Não foi possível analisar a localização no momento. Verifique sua conexão."
	reportFallback  = "Erro ao gerar relatório avançado. Tente novamente mais tarde."
)

// ConnectivitySource gates generation: the model is never called offline.
type ConnectivitySource interface {
	Online() bool
}

// ServiceParams groups dependencies for the AI summary service.
type ServiceParams struct {
	Generator    generator
	Connectivity ConnectivitySource
	Config       config.AIConfig
	Logger       *logger.Logger
}

// Service produces free-text summaries. Location questions go to the
// fast model; the deep fleet report goes to the pro model.
type Service interface {
	Analyze(ctx context.Context, lat, lng float64, query string) (string, error)
	Report(ctx context.Context, records []visits.VisitRecord) (string, error)
}

type service struct {
	gen  generator
	conn ConnectivitySource
	cfg  config.AIConfig
	logg *logger.Logger
}

// NewService builds an AI summary service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Generator == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "generator is required")
	}
	if params.Connectivity == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "connectivity source is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &service{
		gen:  params.Generator,
		conn: params.Connectivity,
		cfg:  params.Config,
		logg: params.Logger,
	}, nil
}

func (s *service) Analyze(ctx context.Context, lat, lng float64, query string) (string, error) {
	if query == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "query is required")
	}
	if !s.conn.Online() {
		return "", pkgerrors.New(pkgerrors.CodeOffline, "análise indisponível sem conexão")
	}

	prompt := fmt.Sprintf(
		"Contexto: Usuário é um funcionário de energia solar em campo na localização %f, %f.\n"+
			"Pergunta do usuário: %s.\n"+
			"Instrução: Forneça informações relevantes sobre o local ou arredores. "+
			"Se for sobre clientes potenciais, procure empresas ou residências próximas.",
		lat, lng, query,
	)

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	text, err := s.gen.generate(ctx, s.cfg.FlashModel, prompt)
	if err != nil {
		s.logg.Warn(ctx, "location analysis failed, serving fallback text")
		return analyzeFallback, nil
	}
	return text, nil
}

func (s *service) Report(ctx context.Context, records []visits.VisitRecord) (string, error) {
	if !s.conn.Online() {
		return "", pkgerrors.New(pkgerrors.CodeOffline, "relatório indisponível sem conexão")
	}

	raw, err := json.Marshal(records)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "serialize records for report")
	}

	prompt := fmt.Sprintf(
		"Atue como um Analista de Inteligência de Negócios Sênior para a CBC Energias Renováveis.\n\n"+
			"Analise profundamente os seguintes dados brutos coletados em campo pelas equipes de Vendas e Instalação.\n\n"+
			"Seus objetivos:\n"+
			"1. Identificar padrões de eficiência (ex: horários com mais fechamentos, regiões com mais recusas).\n"+
			"2. Detectar gargalos operacionais.\n"+
			"3. Sugerir 3 ações estratégicas concretas para a diretoria.\n\n"+
			"Dados Brutos: %s",
		raw,
	)

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	text, err := s.gen.generate(ctx, s.cfg.ProModel, prompt)
	if err != nil {
		s.logg.Warn(ctx, "fleet report failed, serving fallback text")
		return reportFallback, nil
	}
	return text, nil
}
