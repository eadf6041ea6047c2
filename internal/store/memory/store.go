package memory

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"

	"github.com/radieske/stake-predict-platform/internal/domain"
)

var errReadOnly = errors.New("memory store: write in read-only transaction")

type positionKey struct {
	participant domain.Principal
	prediction  domain.PredictionID
}

type reviewKey struct {
	curator    domain.Principal
	prediction domain.PredictionID
}

// Store mantém o estado em memória (dev local e testes).
// Atomic segura o lock de escrita durante toda a operação; as escritas ficam
// numa camada temporária aplicada só no commit.
type Store struct {
	mu sync.RWMutex

	predictions map[domain.PredictionID]domain.Prediction
	positions   map[positionKey]domain.Position
	reputations map[domain.Principal]domain.Reputation
	certs       map[domain.CertificationID]domain.Certification
	certByClaim map[positionKey]domain.CertificationID
	curators    map[domain.Principal]domain.CuratorRecord
	reviews     map[reviewKey]domain.QualityReview
	tallies     map[domain.PredictionID]domain.QualityTally
	sequences   map[domain.Sequence]uint64
	treasury    domain.Amount
	platform    domain.PlatformState
}

func New() *Store {
	return &Store{
		predictions: make(map[domain.PredictionID]domain.Prediction),
		positions:   make(map[positionKey]domain.Position),
		reputations: make(map[domain.Principal]domain.Reputation),
		certs:       make(map[domain.CertificationID]domain.Certification),
		certByClaim: make(map[positionKey]domain.CertificationID),
		curators:    make(map[domain.Principal]domain.CuratorRecord),
		reviews:     make(map[reviewKey]domain.QualityReview),
		tallies:     make(map[domain.PredictionID]domain.QualityTally),
		sequences:   make(map[domain.Sequence]uint64),
	}
}

// Atomic executa fn e aplica as escritas somente se fn retornar nil
func (s *Store) Atomic(ctx context.Context, fn func(tx domain.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t := newTx(s, false)
	if err := fn(t); err != nil {
		return err // descarta a camada temporária
	}
	t.commit()
	return nil
}

// View executa fn sob lock de leitura
func (s *Store) View(ctx context.Context, fn func(tx domain.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(newTx(s, true))
}

// layer sobrepõe escritas pendentes ao mapa base
type layer[K comparable, V any] struct {
	base   map[K]V
	staged map[K]V
}

func newLayer[K comparable, V any](base map[K]V) *layer[K, V] {
	return &layer[K, V]{base: base, staged: make(map[K]V)}
}

func (l *layer[K, V]) get(k K) (V, bool) {
	if v, ok := l.staged[k]; ok {
		return v, true
	}
	v, ok := l.base[k]
	return v, ok
}

func (l *layer[K, V]) put(k K, v V) { l.staged[k] = v }

func (l *layer[K, V]) commit() { maps.Copy(l.base, l.staged) }

type tx struct {
	s        *Store
	readOnly bool

	predictions *layer[domain.PredictionID, domain.Prediction]
	positions   *layer[positionKey, domain.Position]
	reputations *layer[domain.Principal, domain.Reputation]
	certs       *layer[domain.CertificationID, domain.Certification]
	certByClaim *layer[positionKey, domain.CertificationID]
	curators    *layer[domain.Principal, domain.CuratorRecord]
	reviews     *layer[reviewKey, domain.QualityReview]
	tallies     *layer[domain.PredictionID, domain.QualityTally]
	sequences   *layer[domain.Sequence, uint64]

	treasury *domain.Amount
	platform *domain.PlatformState
}

func newTx(s *Store, readOnly bool) *tx {
	return &tx{
		s:           s,
		readOnly:    readOnly,
		predictions: newLayer(s.predictions),
		positions:   newLayer(s.positions),
		reputations: newLayer(s.reputations),
		certs:       newLayer(s.certs),
		certByClaim: newLayer(s.certByClaim),
		curators:    newLayer(s.curators),
		reviews:     newLayer(s.reviews),
		tallies:     newLayer(s.tallies),
		sequences:   newLayer(s.sequences),
	}
}

func (t *tx) commit() {
	t.predictions.commit()
	t.positions.commit()
	t.reputations.commit()
	t.certs.commit()
	t.certByClaim.commit()
	t.curators.commit()
	t.reviews.commit()
	t.tallies.commit()
	t.sequences.commit()
	if t.treasury != nil {
		t.s.treasury = *t.treasury
	}
	if t.platform != nil {
		t.s.platform = *t.platform
	}
}

func (t *tx) writable() error {
	if t.readOnly {
		return errReadOnly
	}
	return nil
}

// clonePrediction evita que o chamador altere a Resolution armazenada
func clonePrediction(p domain.Prediction) domain.Prediction {
	if p.Resolution != nil {
		r := *p.Resolution
		p.Resolution = &r
	}
	return p
}

func (t *tx) Prediction(_ context.Context, id domain.PredictionID) (domain.Prediction, error) {
	p, ok := t.predictions.get(id)
	if !ok {
		return domain.Prediction{}, fmt.Errorf("prediction %d: %w", id, domain.ErrNotFound)
	}
	return clonePrediction(p), nil
}

func (t *tx) InsertPrediction(_ context.Context, p domain.Prediction) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.predictions.get(p.ID); ok {
		return fmt.Errorf("prediction %d: %w", p.ID, domain.ErrAlreadyExists)
	}
	t.predictions.put(p.ID, clonePrediction(p))
	return nil
}

func (t *tx) UpdatePrediction(_ context.Context, p domain.Prediction) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.predictions.get(p.ID); !ok {
		return fmt.Errorf("prediction %d: %w", p.ID, domain.ErrNotFound)
	}
	t.predictions.put(p.ID, clonePrediction(p))
	return nil
}

func (t *tx) NextID(_ context.Context, seq domain.Sequence) (uint64, error) {
	if err := t.writable(); err != nil {
		return 0, err
	}
	cur, _ := t.sequences.get(seq)
	if cur == ^uint64(0) {
		return 0, fmt.Errorf("sequence %s: %w", seq, domain.ErrOverflow)
	}
	t.sequences.put(seq, cur+1)
	return cur + 1, nil
}

func (t *tx) Position(_ context.Context, participant domain.Principal, id domain.PredictionID) (domain.Position, error) {
	p, ok := t.positions.get(positionKey{participant, id})
	if !ok {
		return domain.Position{}, fmt.Errorf("position %s/%d: %w", participant, id, domain.ErrNotFound)
	}
	return p, nil
}

func (t *tx) PutPosition(_ context.Context, pos domain.Position) error {
	if err := t.writable(); err != nil {
		return err
	}
	t.positions.put(positionKey{pos.Participant, pos.PredictionID}, pos)
	return nil
}

func (t *tx) Reputation(_ context.Context, participant domain.Principal) (domain.Reputation, error) {
	r, ok := t.reputations.get(participant)
	if !ok {
		return domain.Reputation{}, fmt.Errorf("reputation %s: %w", participant, domain.ErrNotFound)
	}
	return r, nil
}

func (t *tx) PutReputation(_ context.Context, r domain.Reputation) error {
	if err := t.writable(); err != nil {
		return err
	}
	t.reputations.put(r.Participant, r)
	return nil
}

func (t *tx) Treasury(context.Context) (domain.Amount, error) {
	if t.treasury != nil {
		return *t.treasury, nil
	}
	return t.s.treasury, nil
}

func (t *tx) PutTreasury(_ context.Context, v domain.Amount) error {
	if err := t.writable(); err != nil {
		return err
	}
	t.treasury = &v
	return nil
}

func (t *tx) Certification(_ context.Context, id domain.CertificationID) (domain.Certification, error) {
	c, ok := t.certs.get(id)
	if !ok {
		return domain.Certification{}, fmt.Errorf("certification %d: %w", id, domain.ErrNotFound)
	}
	return c, nil
}

func (t *tx) CertificationFor(ctx context.Context, participant domain.Principal, id domain.PredictionID) (domain.Certification, error) {
	certID, ok := t.certByClaim.get(positionKey{participant, id})
	if !ok {
		return domain.Certification{}, fmt.Errorf("certification for %s/%d: %w", participant, id, domain.ErrNotFound)
	}
	return t.Certification(ctx, certID)
}

func (t *tx) InsertCertification(_ context.Context, c domain.Certification) error {
	if err := t.writable(); err != nil {
		return err
	}
	key := positionKey{c.Creator, c.PredictionID}
	if _, ok := t.certByClaim.get(key); ok {
		return fmt.Errorf("certification for %s/%d: %w", c.Creator, c.PredictionID, domain.ErrAlreadyExists)
	}
	if _, ok := t.certs.get(c.ID); ok {
		return fmt.Errorf("certification %d: %w", c.ID, domain.ErrAlreadyExists)
	}
	t.certs.put(c.ID, c)
	t.certByClaim.put(key, c.ID)
	return nil
}

func (t *tx) Curator(_ context.Context, curator domain.Principal) (domain.CuratorRecord, error) {
	c, ok := t.curators.get(curator)
	if !ok {
		return domain.CuratorRecord{}, fmt.Errorf("curator %s: %w", curator, domain.ErrNotFound)
	}
	return c, nil
}

func (t *tx) PutCurator(_ context.Context, c domain.CuratorRecord) error {
	if err := t.writable(); err != nil {
		return err
	}
	t.curators.put(c.Curator, c)
	return nil
}

func (t *tx) Review(_ context.Context, curator domain.Principal, id domain.PredictionID) (domain.QualityReview, error) {
	r, ok := t.reviews.get(reviewKey{curator, id})
	if !ok {
		return domain.QualityReview{}, fmt.Errorf("review %s/%d: %w", curator, id, domain.ErrNotFound)
	}
	return r, nil
}

func (t *tx) InsertReview(_ context.Context, r domain.QualityReview) error {
	if err := t.writable(); err != nil {
		return err
	}
	key := reviewKey{r.Curator, r.PredictionID}
	if _, ok := t.reviews.get(key); ok {
		return fmt.Errorf("review %s/%d: %w", r.Curator, r.PredictionID, domain.ErrAlreadyExists)
	}
	t.reviews.put(key, r)
	return nil
}

func (t *tx) QualityTally(_ context.Context, id domain.PredictionID) (domain.QualityTally, error) {
	q, ok := t.tallies.get(id)
	if !ok {
		return domain.QualityTally{}, fmt.Errorf("quality tally %d: %w", id, domain.ErrNotFound)
	}
	return q, nil
}

func (t *tx) PutQualityTally(_ context.Context, q domain.QualityTally) error {
	if err := t.writable(); err != nil {
		return err
	}
	t.tallies.put(q.PredictionID, q)
	return nil
}

func (t *tx) Platform(context.Context) (domain.PlatformState, error) {
	if t.platform != nil {
		return *t.platform, nil
	}
	return t.s.platform, nil
}

func (t *tx) PutPlatform(_ context.Context, st domain.PlatformState) error {
	if err := t.writable(); err != nil {
		return err
	}
	t.platform = &st
	return nil
}
