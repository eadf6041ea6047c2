package domain

import "context"

// Os repositórios abaixo são recortes do estado persistido; cada componente
// recebe apenas o recorte de que precisa. Buscas são sempre por chave primária.
// Leituras de entidade inexistente retornam ErrNotFound.

// PredictionRepo persiste previsões
type PredictionRepo interface {
	Prediction(ctx context.Context, id PredictionID) (Prediction, error)
	InsertPrediction(ctx context.Context, p Prediction) error
	UpdatePrediction(ctx context.Context, p Prediction) error
}

// SequenceRepo avança contadores globais (o primeiro valor é 1)
type SequenceRepo interface {
	NextID(ctx context.Context, seq Sequence) (uint64, error)
}

// PositionRepo persiste posições por (participante, previsão)
type PositionRepo interface {
	Position(ctx context.Context, participant Principal, id PredictionID) (Position, error)
	PutPosition(ctx context.Context, pos Position) error
}

// ReputationRepo persiste reputações por participante
type ReputationRepo interface {
	Reputation(ctx context.Context, participant Principal) (Reputation, error)
	PutReputation(ctx context.Context, r Reputation) error
}

// TreasuryRepo guarda o acumulador de taxas
type TreasuryRepo interface {
	Treasury(ctx context.Context) (Amount, error)
	PutTreasury(ctx context.Context, v Amount) error
}

// CertificationRepo persiste metadados de certificação
type CertificationRepo interface {
	Certification(ctx context.Context, id CertificationID) (Certification, error)
	CertificationFor(ctx context.Context, participant Principal, id PredictionID) (Certification, error)
	InsertCertification(ctx context.Context, c Certification) error
}

// CurationRepo persiste curadores, revisões e agregados de qualidade
type CurationRepo interface {
	Curator(ctx context.Context, curator Principal) (CuratorRecord, error)
	PutCurator(ctx context.Context, c CuratorRecord) error
	Review(ctx context.Context, curator Principal, id PredictionID) (QualityReview, error)
	InsertReview(ctx context.Context, r QualityReview) error
	QualityTally(ctx context.Context, id PredictionID) (QualityTally, error)
	PutQualityTally(ctx context.Context, t QualityTally) error
}

// PlatformRepo guarda as flags administrativas
type PlatformRepo interface {
	Platform(ctx context.Context) (PlatformState, error)
	PutPlatform(ctx context.Context, s PlatformState) error
}

// Tx é uma unidade de trabalho: tudo ou nada
type Tx interface {
	PredictionRepo
	SequenceRepo
	PositionRepo
	ReputationRepo
	TreasuryRepo
	CertificationRepo
	CurationRepo
	PlatformRepo
}

// Store executa operações de forma serializada.
// Atomic confirma as escritas somente se fn retornar nil; View é somente leitura.
type Store interface {
	Atomic(ctx context.Context, fn func(tx Tx) error) error
	View(ctx context.Context, fn func(tx Tx) error) error
}
