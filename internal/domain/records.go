package domain

// Reputation acumula o histórico de acerto de um participante.
// Score fica em basis points (0-10000) e é sempre recalculado dos contadores.
type Reputation struct {
	Participant      Principal
	PredictionsCount uint64
	CorrectCount     uint64
	TotalStaked      Amount
	TotalEarned      Amount
	Score            uint16
}

// DefaultReputation é o valor devolvido antes do primeiro registro
func DefaultReputation(p Principal, initialScore uint16) Reputation {
	return Reputation{Participant: p, Score: initialScore}
}

// CertificationID é sequencial, começa em 1
type CertificationID uint64

// Certification é o registro imutável de acerto emitido após um claim correto
type Certification struct {
	ID            CertificationID
	PredictionID  PredictionID
	Creator       Principal
	AccuracyScore uint16
	Domain        string
	IssuedHeight  uint64
	URI           string
}

// CuratorRecord guarda o estado de verificação e a contagem de revisões de um curador
type CuratorRecord struct {
	Curator      Principal
	Verified     bool
	ReviewsCount uint64
}

// QualityReview é a nota dada por um curador a um mercado (0-100)
type QualityReview struct {
	Curator      Principal
	PredictionID PredictionID
	Score        uint8
}

// QualityTally agrega as notas de um mercado
type QualityTally struct {
	PredictionID PredictionID
	ReviewsCount uint64
	ScoreSum     uint64
}

// PlatformState são as flags administrativas
type PlatformState struct {
	Initialized bool
	Paused      bool
}

// Sequence identifica um contador global
type Sequence string

const (
	SeqPrediction    Sequence = "prediction"
	SeqCertification Sequence = "certification"
)
