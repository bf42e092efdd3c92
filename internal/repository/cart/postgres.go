package cart

import (
	"context"
	"errors"
	"time"

	"tutormarket/internal/db"
	"tutormarket/internal/domain"
	holdrepo "tutormarket/internal/repository/hold"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

const cartColumns = `id::text, user_id::text, session_id::text, coupon_code, created_at`

func scanCart(row pgx.Row) (*domain.Cart, error) {
	var c domain.Cart
	err := row.Scan(&c.ID, &c.Owner.UserID, &c.Owner.SessionID, &c.CouponCode, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func getCartQ(ctx context.Context, q db.Queryer, owner domain.Identity) (*domain.Cart, error) {
	const sel = `
SELECT ` + cartColumns + `
FROM carts
WHERE user_id IS NOT DISTINCT FROM $1 AND session_id IS NOT DISTINCT FROM $2
`
	return scanCart(q.QueryRow(ctx, sel, owner.UserID, owner.SessionID))
}

func getOrCreateCartQ(ctx context.Context, q db.Queryer, owner domain.Identity) (*domain.Cart, error) {
	cart, err := getCartQ(ctx, q, owner)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	const ins = `
INSERT INTO carts (user_id, session_id)
VALUES ($1, $2)
ON CONFLICT DO NOTHING
RETURNING ` + cartColumns + `
`
	cart, err = scanCart(q.QueryRow(ctx, ins, owner.UserID, owner.SessionID))
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	// Lost the insert race; the concurrent winner's row is ours too.
	return getCartQ(ctx, q, owner)
}

func (r *postgresRepo) GetOrCreate(ctx context.Context, owner domain.Identity) (*domain.Cart, error) {
	return getOrCreateCartQ(ctx, r.pool, owner)
}

func (r *postgresRepo) GetWithItems(ctx context.Context, owner domain.Identity) (*domain.Cart, error) {
	cart, err := getCartQ(ctx, r.pool, owner)
	if err != nil {
		return nil, err
	}

	const linesQuery = `
SELECT id::text, cart_id::text, course_id::text, tutor_id::text, start_at, duration_min, unit_price_cad, created_at
FROM cart_items
WHERE cart_id = $1
ORDER BY start_at ASC, created_at ASC
`
	rows, err := r.pool.Query(ctx, linesQuery, cart.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(
			&item.ID,
			&item.CartID,
			&item.CourseID,
			&item.TutorID,
			&item.StartAt,
			&item.DurationMin,
			&item.UnitPriceCad,
			&item.CreatedAt,
		); err != nil {
			return nil, err
		}
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return cart, nil
}

const insertItemSQL = `
INSERT INTO cart_items (cart_id, course_id, tutor_id, start_at, duration_min, unit_price_cad)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id::text, created_at
`

func (r *postgresRepo) AddItem(ctx context.Context, in AddItemInput) (*domain.CartItem, error) {
	item := domain.CartItem{
		CourseID:     in.CourseID,
		TutorID:      in.TutorID,
		StartAt:      in.StartAt,
		DurationMin:  in.DurationMin,
		UnitPriceCad: in.UnitPriceCad,
	}
	err := db.InSerializableTx(ctx, r.pool, func(tx pgx.Tx) error {
		cart, err := getOrCreateCartQ(ctx, tx, in.Owner)
		if err != nil {
			return err
		}
		item.CartID = cart.ID

		var dup bool
		err = tx.QueryRow(ctx, `
SELECT EXISTS (
	SELECT 1 FROM cart_items
	WHERE cart_id = $1 AND tutor_id = $2 AND start_at = $3 AND duration_min = $4
)
`, cart.ID, in.TutorID, in.StartAt, in.DurationMin).Scan(&dup)
		if err != nil {
			return err
		}
		if dup {
			return domain.ErrDuplicateItem
		}

		if _, err := holdrepo.AcquireQ(ctx, tx, holdrepo.AcquireInput{
			Owner:       in.Owner,
			TutorID:     in.TutorID,
			CourseID:    in.CourseID,
			StartAt:     in.StartAt,
			DurationMin: in.DurationMin,
			ExpiresAt:   in.HoldExpiresAt,
			Now:         in.Now,
		}); err != nil {
			return err
		}

		return tx.QueryRow(ctx, insertItemSQL,
			cart.ID, in.CourseID, in.TutorID, in.StartAt, in.DurationMin, in.UnitPriceCad,
		).Scan(&item.ID, &item.CreatedAt)
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// batchFilterSQL classifies every candidate session in one set-based pass:
// already in the cart, overlapping a confirmed appointment, or blocked by a
// live hold under a different identity.
const batchFilterSQL = `
SELECT s.idx,
	EXISTS (
		SELECT 1 FROM cart_items ci
		WHERE ci.cart_id = $4
		  AND ci.tutor_id = s.tutor_id AND ci.start_at = s.start_at AND ci.duration_min = s.duration_min
	) AS dup,
	EXISTS (
		SELECT 1 FROM appointments a
		WHERE a.tutor_id = s.tutor_id
		  AND a.status IN ('scheduled', 'completed')
		  AND a.start_at < s.start_at + make_interval(mins => s.duration_min)
		  AND a.end_at > s.start_at
	) AS booked,
	EXISTS (
		SELECT 1 FROM slot_holds h
		WHERE h.tutor_id = s.tutor_id AND h.start_at = s.start_at
		  AND h.expires_at > $5
		  AND NOT (h.user_id IS NOT DISTINCT FROM $6 AND h.session_id IS NOT DISTINCT FROM $7)
	) AS held
FROM unnest($1::uuid[], $2::timestamptz[], $3::int[]) WITH ORDINALITY AS s(tutor_id, start_at, duration_min, idx)
`

func (r *postgresRepo) AddItemsBatch(ctx context.Context, in BatchInput) (BatchResult, error) {
	var res BatchResult
	if len(in.Sessions) == 0 {
		return res, nil
	}

	// Same-batch duplicates never reach the database.
	type slotKey struct {
		tutorID  string
		start    int64
		duration int
	}
	seen := make(map[slotKey]struct{}, len(in.Sessions))
	sessions := make([]BatchSession, 0, len(in.Sessions))
	dedup := 0
	for _, s := range in.Sessions {
		k := slotKey{s.TutorID, s.StartAt.UnixNano(), s.DurationMin}
		if _, ok := seen[k]; ok {
			dedup++
			continue
		}
		seen[k] = struct{}{}
		sessions = append(sessions, s)
	}
	err := db.InSerializableTx(ctx, r.pool, func(tx pgx.Tx) error {
		added, skipped := 0, 0

		cart, err := getOrCreateCartQ(ctx, tx, in.Owner)
		if err != nil {
			return err
		}

		tutorIDs := make([]string, len(sessions))
		starts := make([]time.Time, len(sessions))
		durations := make([]int32, len(sessions))
		for i, s := range sessions {
			tutorIDs[i] = s.TutorID
			starts[i] = s.StartAt
			durations[i] = int32(s.DurationMin)
		}

		rows, err := tx.Query(ctx, batchFilterSQL,
			tutorIDs, starts, durations,
			cart.ID, in.Now, in.Owner.UserID, in.Owner.SessionID,
		)
		if err != nil {
			return err
		}
		blocked := make(map[int]bool, len(sessions))
		for rows.Next() {
			var idx int
			var dup, booked, held bool
			if err := rows.Scan(&idx, &dup, &booked, &held); err != nil {
				rows.Close()
				return err
			}
			blocked[idx-1] = dup || booked || held
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		for i, s := range sessions {
			if blocked[i] {
				skipped++
				continue
			}
			_, err := holdrepo.AcquireQ(ctx, tx, holdrepo.AcquireInput{
				Owner:       in.Owner,
				TutorID:     s.TutorID,
				CourseID:    in.CourseID,
				StartAt:     s.StartAt,
				DurationMin: s.DurationMin,
				ExpiresAt:   in.HoldExpiresAt,
				Now:         in.Now,
			})
			if errors.Is(err, domain.ErrSlotUnavailable) {
				// Claimed between the filter pass and here; skip, not abort.
				skipped++
				continue
			}
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `
INSERT INTO cart_items (cart_id, course_id, tutor_id, start_at, duration_min, unit_price_cad)
VALUES ($1, $2, $3, $4, $5, $6)
`, cart.ID, in.CourseID, s.TutorID, s.StartAt, s.DurationMin, s.UnitPriceCad); err != nil {
				return err
			}
			added++
		}

		// Assign, never accumulate: the closure may rerun on a
		// serialization retry.
		res.Added = added
		res.Skipped = dedup + skipped
		return nil
	})
	if err != nil {
		return BatchResult{}, err
	}
	return res, nil
}

func (r *postgresRepo) RemoveItem(ctx context.Context, owner domain.Identity, itemID string) error {
	return db.InSerializableTx(ctx, r.pool, func(tx pgx.Tx) error {
		var tutorID string
		var startAt time.Time
		err := tx.QueryRow(ctx, `
SELECT ci.tutor_id::text, ci.start_at
FROM cart_items ci
JOIN carts c ON c.id = ci.cart_id
WHERE ci.id = $1
  AND c.user_id IS NOT DISTINCT FROM $2
  AND c.session_id IS NOT DISTINCT FROM $3
`, itemID, owner.UserID, owner.SessionID).Scan(&tutorID, &startAt)
		if err != nil {
			// Foreign items read as absent so existence never leaks.
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrNotFound
			}
			return err
		}

		if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE id = $1`, itemID); err != nil {
			return err
		}
		return holdrepo.ReleaseQ(ctx, tx, owner, tutorID, startAt)
	})
}

func (r *postgresRepo) SetCoupon(ctx context.Context, owner domain.Identity, code *string) error {
	cart, err := getOrCreateCartQ(ctx, r.pool, owner)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `UPDATE carts SET coupon_code = $1 WHERE id = $2`, code, cart.ID)
	return err
}

// purgeSQL drops every item whose backing hold is gone, inert, or owned by
// another identity, and every item whose window is now covered by a
// confirmed appointment, releasing the paired holds in the same statement.
// The release matches duration too: a hold refreshed to another duration
// backs that newer item, not the purged one.
const purgeSQL = `
WITH gone AS (
	SELECT ci.id, ci.tutor_id, ci.start_at, ci.duration_min
	FROM cart_items ci
	WHERE ci.cart_id = $1
	  AND (
		EXISTS (
			SELECT 1 FROM appointments a
			WHERE a.tutor_id = ci.tutor_id
			  AND a.status IN ('scheduled', 'completed')
			  AND a.start_at < ci.start_at + make_interval(mins => ci.duration_min)
			  AND a.end_at > ci.start_at
		)
		OR NOT EXISTS (
			SELECT 1 FROM slot_holds h
			WHERE h.tutor_id = ci.tutor_id AND h.start_at = ci.start_at
			  AND h.duration_min = ci.duration_min
			  AND h.expires_at > $2
			  AND h.user_id IS NOT DISTINCT FROM $3
			  AND h.session_id IS NOT DISTINCT FROM $4
		)
	)
),
released AS (
	DELETE FROM slot_holds h
	USING gone g
	WHERE h.tutor_id = g.tutor_id AND h.start_at = g.start_at
	  AND h.duration_min = g.duration_min
	  AND h.user_id IS NOT DISTINCT FROM $3
	  AND h.session_id IS NOT DISTINCT FROM $4
)
DELETE FROM cart_items WHERE id IN (SELECT id FROM gone)
`

func (r *postgresRepo) PurgeUnavailable(ctx context.Context, owner domain.Identity, now time.Time) (int64, error) {
	cart, err := getCartQ(ctx, r.pool, owner)
	if errors.Is(err, domain.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var purged int64
	err = db.InSerializableTx(ctx, r.pool, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx, purgeSQL, cart.ID, now, owner.UserID, owner.SessionID)
		if err != nil {
			return err
		}
		purged = cmd.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, err
	}
	return purged, nil
}

func (r *postgresRepo) ExtendHolds(ctx context.Context, owner domain.Identity, expiresAt, now time.Time) (int64, error) {
	const q = `
UPDATE slot_holds h
SET expires_at = $1
FROM cart_items ci
JOIN carts c ON c.id = ci.cart_id
WHERE c.user_id IS NOT DISTINCT FROM $2
  AND c.session_id IS NOT DISTINCT FROM $3
  AND h.tutor_id = ci.tutor_id
  AND h.start_at = ci.start_at
  AND h.expires_at > $4
  AND h.user_id IS NOT DISTINCT FROM $2
  AND h.session_id IS NOT DISTINCT FROM $3
`
	cmd, err := r.pool.Exec(ctx, q, expiresAt, owner.UserID, owner.SessionID, now)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *postgresRepo) MergeFromSession(ctx context.Context, sessionID, userID string) (MergeResult, error) {
	var res MergeResult
	err := db.InSerializableTx(ctx, r.pool, func(tx pgx.Tx) error {
		res = MergeResult{}

		sessionCart, err := getCartQ(ctx, tx, domain.SessionIdentity(sessionID))
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		userCart, err := getOrCreateCartQ(ctx, tx, domain.UserIdentity(userID))
		if err != nil {
			return err
		}

		// Slots the user already has stay as the user's items; the guest
		// duplicates are dropped, not moved.
		cmd, err := tx.Exec(ctx, `
DELETE FROM cart_items si
USING cart_items ui
WHERE si.cart_id = $1
  AND ui.cart_id = $2
  AND ui.tutor_id = si.tutor_id
  AND ui.start_at = si.start_at
  AND ui.duration_min = si.duration_min
`, sessionCart.ID, userCart.ID)
		if err != nil {
			return err
		}
		res.Skipped = int(cmd.RowsAffected())

		cmd, err = tx.Exec(ctx, `UPDATE cart_items SET cart_id = $1 WHERE cart_id = $2`, userCart.ID, sessionCart.ID)
		if err != nil {
			return err
		}
		res.Moved = int(cmd.RowsAffected())

		if _, err := tx.Exec(ctx, `
UPDATE slot_holds
SET user_id = $1, session_id = NULL
WHERE session_id = $2
`, userID, sessionID); err != nil {
			return err
		}

		if userCart.CouponCode == nil && sessionCart.CouponCode != nil {
			if _, err := tx.Exec(ctx, `UPDATE carts SET coupon_code = $1 WHERE id = $2`, sessionCart.CouponCode, userCart.ID); err != nil {
				return err
			}
		}

		_, err = tx.Exec(ctx, `DELETE FROM carts WHERE id = $1`, sessionCart.ID)
		return err
	})
	if err != nil {
		return MergeResult{}, err
	}
	return res, nil
}
