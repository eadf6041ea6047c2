package domain

// Params reúne as constantes econômicas da plataforma.
// São fixas; a struct existe para que os componentes recebam os valores por injeção.
type Params struct {
	MinStake Amount
	MaxStake Amount

	// fee = floor(lost * FeeBPS / FeeDenominator)
	FeeBPS         uint64
	FeeDenominator uint64

	// percentual (0-100); comparado com o score em basis points (x100)
	AccuracyThreshold uint16

	MaxDuration         uint64
	DefaultQualityScore uint8
	InitialScore        uint16

	MaxTitleLen       int
	MaxDescriptionLen int
	MaxDomainLen      int
	MaxURILen         int
}

const (
	ScoreScale    = 10000
	MaxQuality    = 100
	DefaultFeeBPS = 50
)

// DefaultParams retorna o conjunto de parâmetros de produção
func DefaultParams() Params {
	return Params{
		MinStake:            NewAmount(1_000_000),
		MaxStake:            NewAmount(1_000_000_000_000),
		FeeBPS:              DefaultFeeBPS,
		FeeDenominator:      1000,
		AccuracyThreshold:   80,
		MaxDuration:         52_560,
		DefaultQualityScore: 50,
		InitialScore:        5000,
		MaxTitleLen:         256,
		MaxDescriptionLen:   1024,
		MaxDomainLen:        64,
		MaxURILen:           256,
	}
}

// ThresholdScore é o limiar de certificação na mesma escala do score
func (p Params) ThresholdScore() uint16 {
	return p.AccuracyThreshold * 100
}
