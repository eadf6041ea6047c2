package domain

import "fmt"

// Principal identifica um participante (opaco, comparável)
type Principal string

// PredictionID é sequencial, começa em 1 e nunca é reutilizado
type PredictionID uint64

// Side: true = yes, false = no
type Side = bool

const (
	SideYes Side = true
	SideNo  Side = false
)

// Status do ciclo de vida de uma previsão
type Status string

const (
	StatusOpen     Status = "OPEN"
	StatusClosed   Status = "CLOSED"
	StatusResolved Status = "RESOLVED"
)

// Resolution agrupa resultado e altura de resolução num único valor opcional:
// ou os dois existem, ou nenhum existe.
type Resolution struct {
	Outcome bool
	Height  uint64
}

// Prediction é o mercado binário mantido pelo Market Registry
type Prediction struct {
	ID            PredictionID
	Creator       Principal
	Title         string
	Description   string
	Domain        string
	CreatedHeight uint64
	EndHeight     uint64
	StakeYesTotal Amount
	StakeNoTotal  Amount
	QualityScore  uint8
	Resolution    *Resolution
}

// Outcome retorna o resultado, se resolvido
func (p Prediction) Outcome() (bool, bool) {
	if p.Resolution == nil {
		return false, false
	}
	return p.Resolution.Outcome, true
}

// ResolvedHeight retorna a altura de resolução, se resolvido
func (p Prediction) ResolvedHeight() (uint64, bool) {
	if p.Resolution == nil {
		return 0, false
	}
	return p.Resolution.Height, true
}

func (p Prediction) IsResolved() bool { return p.Resolution != nil }

// Status calcula o estado na altura informada
func (p Prediction) Status(height uint64) Status {
	switch {
	case p.Resolution != nil:
		return StatusResolved
	case height >= p.EndHeight:
		return StatusClosed
	default:
		return StatusOpen
	}
}

// Resolve é a única mutação de resultado permitida; é terminal.
func (p *Prediction) Resolve(outcome bool, height uint64) error {
	if p.Resolution != nil {
		return fmt.Errorf("prediction %d: %w", p.ID, ErrAlreadyResolved)
	}
	p.Resolution = &Resolution{Outcome: outcome, Height: height}
	return nil
}

// SideTotal retorna o total apostado em um lado
func (p Prediction) SideTotal(side Side) Amount {
	if side {
		return p.StakeYesTotal
	}
	return p.StakeNoTotal
}

// SetSideTotal atualiza o total de um lado
func (p *Prediction) SetSideTotal(side Side, v Amount) {
	if side {
		p.StakeYesTotal = v
		return
	}
	p.StakeNoTotal = v
}

// Position é a aposta agregada de um participante em um mercado
type Position struct {
	Participant  Principal
	PredictionID PredictionID
	StakeAmount  Amount
	Side         Side
	Claimed      bool
}
