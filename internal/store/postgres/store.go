package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/radieske/stake-predict-platform/internal/domain"
)

var errReadOnly = errors.New("postgres store: write in read-only transaction")

// Store implementa domain.Store sobre Postgres: uma transação SQL por operação.
// Em Atomic toda leitura usa FOR UPDATE; como toda mutação começa lendo
// platform_state, as operações ficam serializadas pela trava dessa linha.
type Store struct{ db *sql.DB }

func New(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Atomic(ctx context.Context, fn func(tx domain.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&tx{q: sqlTx, lock: true}); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) View(ctx context.Context, fn func(tx domain.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer sqlTx.Rollback()
	return fn(&tx{q: sqlTx})
}

type tx struct {
	q    *sql.Tx
	lock bool
}

// forUpdate devolve a cláusula de trava quando a transação pode escrever
func (t *tx) forUpdate() string {
	if t.lock {
		return " FOR UPDATE"
	}
	return ""
}

func (t *tx) writable() error {
	if !t.lock {
		return errReadOnly
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// notFound traduz sql.ErrNoRows para domain.ErrNotFound
func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}

const predictionColumns = `id, creator, title, description, domain, created_height, end_height, ` +
	`stake_yes_total, stake_no_total, quality_score, outcome, resolved_height`

func (t *tx) Prediction(ctx context.Context, id domain.PredictionID) (domain.Prediction, error) {
	var (
		p        domain.Prediction
		outcome  sql.NullBool
		resolved sql.NullInt64
	)
	err := t.q.QueryRowContext(ctx,
		`SELECT `+predictionColumns+` FROM predictions WHERE id=$1`+t.forUpdate(), id).
		Scan(&p.ID, &p.Creator, &p.Title, &p.Description, &p.Domain, &p.CreatedHeight, &p.EndHeight,
			&p.StakeYesTotal, &p.StakeNoTotal, &p.QualityScore, &outcome, &resolved)
	if err != nil {
		return domain.Prediction{}, notFound(err, fmt.Sprintf("prediction %d", id))
	}
	if outcome.Valid != resolved.Valid {
		return domain.Prediction{}, fmt.Errorf("prediction %d: outcome and resolved height out of sync", id)
	}
	if outcome.Valid {
		p.Resolution = &domain.Resolution{Outcome: outcome.Bool, Height: uint64(resolved.Int64)}
	}
	return p, nil
}

// resolutionArgs converte a resolução opcional nas duas colunas anuláveis
func resolutionArgs(p domain.Prediction) (sql.NullBool, sql.NullInt64) {
	if p.Resolution == nil {
		return sql.NullBool{}, sql.NullInt64{}
	}
	return sql.NullBool{Bool: p.Resolution.Outcome, Valid: true},
		sql.NullInt64{Int64: int64(p.Resolution.Height), Valid: true}
}

func (t *tx) InsertPrediction(ctx context.Context, p domain.Prediction) error {
	if err := t.writable(); err != nil {
		return err
	}
	outcome, resolved := resolutionArgs(p)
	_, err := t.q.ExecContext(ctx,
		`INSERT INTO predictions(`+predictionColumns+`) VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		p.ID, p.Creator, p.Title, p.Description, p.Domain, p.CreatedHeight, p.EndHeight,
		p.StakeYesTotal, p.StakeNoTotal, p.QualityScore, outcome, resolved)
	if isUniqueViolation(err) {
		return fmt.Errorf("prediction %d: %w", p.ID, domain.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("insert prediction %d: %w", p.ID, err)
	}
	return nil
}

// UpdatePrediction grava apenas os campos mutáveis: totais e resolução
func (t *tx) UpdatePrediction(ctx context.Context, p domain.Prediction) error {
	if err := t.writable(); err != nil {
		return err
	}
	outcome, resolved := resolutionArgs(p)
	res, err := t.q.ExecContext(ctx,
		`UPDATE predictions SET stake_yes_total=$2, stake_no_total=$3, outcome=$4, resolved_height=$5 WHERE id=$1`,
		p.ID, p.StakeYesTotal, p.StakeNoTotal, outcome, resolved)
	if err != nil {
		return fmt.Errorf("update prediction %d: %w", p.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("prediction %d: %w", p.ID, domain.ErrNotFound)
	}
	return nil
}

func (t *tx) NextID(ctx context.Context, seq domain.Sequence) (uint64, error) {
	if err := t.writable(); err != nil {
		return 0, err
	}
	var v uint64
	err := t.q.QueryRowContext(ctx,
		`UPDATE sequences SET value = value + 1 WHERE name=$1 RETURNING value`, string(seq)).Scan(&v)
	if err != nil {
		return 0, notFound(err, fmt.Sprintf("sequence %s", seq))
	}
	return v, nil
}

func (t *tx) Position(ctx context.Context, participant domain.Principal, id domain.PredictionID) (domain.Position, error) {
	pos := domain.Position{Participant: participant, PredictionID: id}
	err := t.q.QueryRowContext(ctx,
		`SELECT stake_amount, side, claimed FROM positions WHERE participant=$1 AND prediction_id=$2`+t.forUpdate(),
		participant, id).Scan(&pos.StakeAmount, &pos.Side, &pos.Claimed)
	if err != nil {
		return domain.Position{}, notFound(err, fmt.Sprintf("position %s/%d", participant, id))
	}
	return pos, nil
}

// PutPosition nunca altera o lado de uma posição existente
func (t *tx) PutPosition(ctx context.Context, pos domain.Position) error {
	if err := t.writable(); err != nil {
		return err
	}
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO positions(participant, prediction_id, stake_amount, side, claimed)
		VALUES($1,$2,$3,$4,$5)
		ON CONFLICT (participant, prediction_id)
		DO UPDATE SET stake_amount=EXCLUDED.stake_amount, claimed=EXCLUDED.claimed`,
		pos.Participant, pos.PredictionID, pos.StakeAmount, pos.Side, pos.Claimed)
	if err != nil {
		return fmt.Errorf("put position %s/%d: %w", pos.Participant, pos.PredictionID, err)
	}
	return nil
}

func (t *tx) Reputation(ctx context.Context, participant domain.Principal) (domain.Reputation, error) {
	r := domain.Reputation{Participant: participant}
	err := t.q.QueryRowContext(ctx,
		`SELECT predictions_count, correct_count, total_staked, total_earned, score FROM reputations WHERE participant=$1`+t.forUpdate(),
		participant).Scan(&r.PredictionsCount, &r.CorrectCount, &r.TotalStaked, &r.TotalEarned, &r.Score)
	if err != nil {
		return domain.Reputation{}, notFound(err, fmt.Sprintf("reputation %s", participant))
	}
	return r, nil
}

func (t *tx) PutReputation(ctx context.Context, r domain.Reputation) error {
	if err := t.writable(); err != nil {
		return err
	}
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO reputations(participant, predictions_count, correct_count, total_staked, total_earned, score)
		VALUES($1,$2,$3,$4,$5,$6)
		ON CONFLICT (participant) DO UPDATE SET
			predictions_count=EXCLUDED.predictions_count,
			correct_count=EXCLUDED.correct_count,
			total_staked=EXCLUDED.total_staked,
			total_earned=EXCLUDED.total_earned,
			score=EXCLUDED.score`,
		r.Participant, r.PredictionsCount, r.CorrectCount, r.TotalStaked, r.TotalEarned, r.Score)
	if err != nil {
		return fmt.Errorf("put reputation %s: %w", r.Participant, err)
	}
	return nil
}

func (t *tx) Treasury(ctx context.Context) (domain.Amount, error) {
	var v domain.Amount
	if err := t.q.QueryRowContext(ctx, `SELECT treasury FROM platform_state WHERE id=1`+t.forUpdate()).Scan(&v); err != nil {
		return domain.Amount{}, notFound(err, "platform state")
	}
	return v, nil
}

func (t *tx) PutTreasury(ctx context.Context, v domain.Amount) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, err := t.q.ExecContext(ctx, `UPDATE platform_state SET treasury=$1 WHERE id=1`, v); err != nil {
		return fmt.Errorf("put treasury: %w", err)
	}
	return nil
}

const certificationColumns = `id, prediction_id, creator, accuracy_score, domain, issued_height, uri`

func scanCertification(row *sql.Row) (domain.Certification, error) {
	var c domain.Certification
	err := row.Scan(&c.ID, &c.PredictionID, &c.Creator, &c.AccuracyScore, &c.Domain, &c.IssuedHeight, &c.URI)
	return c, err
}

func (t *tx) Certification(ctx context.Context, id domain.CertificationID) (domain.Certification, error) {
	c, err := scanCertification(t.q.QueryRowContext(ctx,
		`SELECT `+certificationColumns+` FROM certifications WHERE id=$1`, id))
	if err != nil {
		return domain.Certification{}, notFound(err, fmt.Sprintf("certification %d", id))
	}
	return c, nil
}

func (t *tx) CertificationFor(ctx context.Context, participant domain.Principal, id domain.PredictionID) (domain.Certification, error) {
	c, err := scanCertification(t.q.QueryRowContext(ctx,
		`SELECT `+certificationColumns+` FROM certifications WHERE creator=$1 AND prediction_id=$2`, participant, id))
	if err != nil {
		return domain.Certification{}, notFound(err, fmt.Sprintf("certification for %s/%d", participant, id))
	}
	return c, nil
}

func (t *tx) InsertCertification(ctx context.Context, c domain.Certification) error {
	if err := t.writable(); err != nil {
		return err
	}
	_, err := t.q.ExecContext(ctx,
		`INSERT INTO certifications(`+certificationColumns+`) VALUES($1,$2,$3,$4,$5,$6,$7)`,
		c.ID, c.PredictionID, c.Creator, c.AccuracyScore, c.Domain, c.IssuedHeight, c.URI)
	if isUniqueViolation(err) {
		return fmt.Errorf("certification for %s/%d: %w", c.Creator, c.PredictionID, domain.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("insert certification %d: %w", c.ID, err)
	}
	return nil
}

func (t *tx) Curator(ctx context.Context, curator domain.Principal) (domain.CuratorRecord, error) {
	c := domain.CuratorRecord{Curator: curator}
	err := t.q.QueryRowContext(ctx,
		`SELECT verified, reviews_count FROM curators WHERE curator=$1`+t.forUpdate(), curator).
		Scan(&c.Verified, &c.ReviewsCount)
	if err != nil {
		return domain.CuratorRecord{}, notFound(err, fmt.Sprintf("curator %s", curator))
	}
	return c, nil
}

func (t *tx) PutCurator(ctx context.Context, c domain.CuratorRecord) error {
	if err := t.writable(); err != nil {
		return err
	}
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO curators(curator, verified, reviews_count) VALUES($1,$2,$3)
		ON CONFLICT (curator) DO UPDATE SET verified=EXCLUDED.verified, reviews_count=EXCLUDED.reviews_count`,
		c.Curator, c.Verified, c.ReviewsCount)
	if err != nil {
		return fmt.Errorf("put curator %s: %w", c.Curator, err)
	}
	return nil
}

func (t *tx) Review(ctx context.Context, curator domain.Principal, id domain.PredictionID) (domain.QualityReview, error) {
	r := domain.QualityReview{Curator: curator, PredictionID: id}
	err := t.q.QueryRowContext(ctx,
		`SELECT score FROM quality_reviews WHERE curator=$1 AND prediction_id=$2`, curator, id).Scan(&r.Score)
	if err != nil {
		return domain.QualityReview{}, notFound(err, fmt.Sprintf("review %s/%d", curator, id))
	}
	return r, nil
}

func (t *tx) InsertReview(ctx context.Context, r domain.QualityReview) error {
	if err := t.writable(); err != nil {
		return err
	}
	_, err := t.q.ExecContext(ctx,
		`INSERT INTO quality_reviews(curator, prediction_id, score) VALUES($1,$2,$3)`,
		r.Curator, r.PredictionID, r.Score)
	if isUniqueViolation(err) {
		return fmt.Errorf("review %s/%d: %w", r.Curator, r.PredictionID, domain.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

func (t *tx) QualityTally(ctx context.Context, id domain.PredictionID) (domain.QualityTally, error) {
	q := domain.QualityTally{PredictionID: id}
	err := t.q.QueryRowContext(ctx,
		`SELECT reviews_count, score_sum FROM quality_tallies WHERE prediction_id=$1`+t.forUpdate(), id).
		Scan(&q.ReviewsCount, &q.ScoreSum)
	if err != nil {
		return domain.QualityTally{}, notFound(err, fmt.Sprintf("quality tally %d", id))
	}
	return q, nil
}

func (t *tx) PutQualityTally(ctx context.Context, q domain.QualityTally) error {
	if err := t.writable(); err != nil {
		return err
	}
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO quality_tallies(prediction_id, reviews_count, score_sum) VALUES($1,$2,$3)
		ON CONFLICT (prediction_id) DO UPDATE SET reviews_count=EXCLUDED.reviews_count, score_sum=EXCLUDED.score_sum`,
		q.PredictionID, q.ReviewsCount, q.ScoreSum)
	if err != nil {
		return fmt.Errorf("put quality tally %d: %w", q.PredictionID, err)
	}
	return nil
}

func (t *tx) Platform(ctx context.Context) (domain.PlatformState, error) {
	var st domain.PlatformState
	err := t.q.QueryRowContext(ctx,
		`SELECT initialized, paused FROM platform_state WHERE id=1`+t.forUpdate()).Scan(&st.Initialized, &st.Paused)
	if err != nil {
		return domain.PlatformState{}, notFound(err, "platform state")
	}
	return st, nil
}

func (t *tx) PutPlatform(ctx context.Context, st domain.PlatformState) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, err := t.q.ExecContext(ctx,
		`UPDATE platform_state SET initialized=$1, paused=$2 WHERE id=1`, st.Initialized, st.Paused); err != nil {
		return fmt.Errorf("put platform state: %w", err)
	}
	return nil
}
