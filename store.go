package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"lg/fittrack-api/internal/nutrition"
)

// errDuplicateUser is returned by createUser when the username is taken.
var errDuplicateUser = errors.New("username already exists")

// pgStore is the Postgres-backed data access layer. It implements
// nutrition.Source for the summary aggregator.
type pgStore struct {
	pool *pgxpool.Pool
}

var _ nutrition.Source = (*pgStore)(nil)

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

/* ─── Query helpers ──────────────────────────────────────────────────── */

// queryOne runs a query and scans the first row into T using RowToStructByName.
// Returns pgx.ErrNoRows when the query matches nothing.
func queryOne[T any](ctx context.Context, q querier, sql string, args pgx.NamedArgs) (T, error) {
	rows, err := q.Query(ctx, sql, args)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("query: %w", err)
	}
	return pgx.CollectOneRow(rows, pgx.RowToStructByName[T])
}

// queryMany runs a query and scans all rows into []T using RowToStructByName.
func queryMany[T any](ctx context.Context, q querier, sql string, args pgx.NamedArgs) ([]T, error) {
	rows, err := q.Query(ctx, sql, args)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[T])
}

// inTx runs fn in a transaction, rolling back on error.
func (s *pgStore) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

/* ─── Users ──────────────────────────────────────────────────────────── */

// createUser inserts a user and the empty profile row onboarding fills in.
func (s *pgStore) createUser(ctx context.Context, username, email, passwordHash string) (user, error) {
	var u user
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		u, err = queryOne[user](ctx, tx,
			`INSERT INTO users (username, email, password)
			 VALUES (@username, @email, @password)
			 RETURNING *`,
			pgx.NamedArgs{"username": username, "email": email, "password": passwordHash})
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return errDuplicateUser
			}
			return err
		}
		_, err = tx.Exec(ctx, "INSERT INTO profiles (user_id) VALUES (@userID)",
			pgx.NamedArgs{"userID": u.ID})
		return err
	})
	return u, err
}

func (s *pgStore) userByUsername(ctx context.Context, username string) (user, error) {
	return queryOne[user](ctx, s.pool,
		"SELECT * FROM users WHERE username = @username",
		pgx.NamedArgs{"username": username})
}

/* ─── Profile ────────────────────────────────────────────────────────── */

// Profile returns the user's profile or nutrition.ErrProfileNotFound.
func (s *pgStore) Profile(ctx context.Context, userID int) (nutrition.Profile, error) {
	p, err := queryOne[nutrition.Profile](ctx, s.pool,
		"SELECT * FROM profiles WHERE user_id = @userID",
		pgx.NamedArgs{"userID": userID})
	if errors.Is(err, pgx.ErrNoRows) {
		return nutrition.Profile{}, nutrition.ErrProfileNotFound
	}
	return p, err
}

// updateProfile applies only the non-nil fields of body, then recomputes and
// stores the derived BMI, BMR and calorie goal in the same transaction.
func (s *pgStore) updateProfile(ctx context.Context, userID int, body patchProfileRequest) (nutrition.Profile, error) {
	setClauses := []string{}
	args := pgx.NamedArgs{"userID": userID}

	if body.Sex != nil {
		setClauses = append(setClauses, "sex = @sex")
		args["sex"] = strings.ToLower(strings.TrimSpace(*body.Sex))
	}
	if body.HeightCM != nil {
		setClauses = append(setClauses, "height_cm = @heightCM")
		args["heightCM"] = *body.HeightCM
	}
	if body.WeightKG != nil {
		setClauses = append(setClauses, "weight_kg = @weightKG")
		args["weightKG"] = *body.WeightKG
	}
	if body.AgeYears != nil {
		setClauses = append(setClauses, "age_years = @ageYears")
		args["ageYears"] = *body.AgeYears
	}
	if body.ActivityLevel != nil {
		setClauses = append(setClauses, "activity_level = @activityLevel")
		args["activityLevel"] = nutrition.NormalizeActivityLevel(*body.ActivityLevel)
	}
	if body.TargetWeightKG != nil {
		setClauses = append(setClauses, "target_weight_kg = @targetWeightKG")
		args["targetWeightKG"] = *body.TargetWeightKG
	}

	var p nutrition.Profile
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		if len(setClauses) > 0 {
			_, err = tx.Exec(ctx,
				"UPDATE profiles SET "+strings.Join(setClauses, ", ")+" WHERE user_id = @userID", args)
			if err != nil {
				return err
			}
		}
		p, err = refreshDerived(ctx, tx, userID)
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nutrition.Profile{}, nutrition.ErrProfileNotFound
	}
	return p, err
}

// refreshDerived recomputes BMI, BMR and the daily calorie goal from the
// stored body metrics and writes them back.
func refreshDerived(ctx context.Context, q querier, userID int) (nutrition.Profile, error) {
	p, err := queryOne[nutrition.Profile](ctx, q,
		"SELECT * FROM profiles WHERE user_id = @userID",
		pgx.NamedArgs{"userID": userID})
	if err != nil {
		return p, err
	}
	nutrition.ApplyDerived(&p)
	return queryOne[nutrition.Profile](ctx, q,
		`UPDATE profiles SET bmi = @bmi, bmr = @bmr, daily_calorie_goal = @goal, updated_at = now()
		 WHERE user_id = @userID RETURNING *`,
		pgx.NamedArgs{"userID": userID, "bmi": p.BMI, "bmr": p.BMR, "goal": p.DailyCalorieGoal})
}

/* ─── Food intake & exercise ─────────────────────────────────────────── */

func (s *pgStore) IntakeBetween(ctx context.Context, userID int, start, end time.Time) ([]nutrition.FoodIntakeEntry, error) {
	return queryMany[nutrition.FoodIntakeEntry](ctx, s.pool,
		`SELECT * FROM food_intake
		 WHERE user_id = @userID AND logged_at >= @start AND logged_at < @end
		 ORDER BY logged_at`,
		pgx.NamedArgs{"userID": userID, "start": start, "end": end})
}

func (s *pgStore) ExerciseBetween(ctx context.Context, userID int, start, end time.Time) ([]nutrition.ExerciseEntry, error) {
	return queryMany[nutrition.ExerciseEntry](ctx, s.pool,
		`SELECT * FROM exercise_log
		 WHERE user_id = @userID AND logged_at >= @start AND logged_at < @end
		 ORDER BY logged_at`,
		pgx.NamedArgs{"userID": userID, "start": start, "end": end})
}

// insertIntake stores a food entry; logged_at is assigned by the database.
func (s *pgStore) insertIntake(ctx context.Context, userID int, body createIntakeRequest) (nutrition.FoodIntakeEntry, error) {
	return queryOne[nutrition.FoodIntakeEntry](ctx, s.pool,
		`INSERT INTO food_intake (user_id, name, meal, calories, carbs_g, protein_g, fat_g)
		 VALUES (@userID, @name, @meal, @calories, @carbsG, @proteinG, @fatG)
		 RETURNING *`,
		pgx.NamedArgs{
			"userID": userID, "name": body.Name, "meal": body.Meal,
			"calories": body.Calories, "carbsG": body.CarbsG,
			"proteinG": body.ProteinG, "fatG": body.FatG,
		})
}

// insertExercise stores an exercise entry; logged_at is assigned by the database.
func (s *pgStore) insertExercise(ctx context.Context, userID int, body createExerciseRequest) (nutrition.ExerciseEntry, error) {
	return queryOne[nutrition.ExerciseEntry](ctx, s.pool,
		`INSERT INTO exercise_log (user_id, category, name, duration_min, calories_burned)
		 VALUES (@userID, @category, @name, @durationMin, @caloriesBurned)
		 RETURNING *`,
		pgx.NamedArgs{
			"userID": userID, "category": body.Category, "name": body.Name,
			"durationMin": body.DurationMin, "caloriesBurned": body.CaloriesBurned,
		})
}

// deleteEntry removes a row owned by userID from table. Returns false when
// nothing matched. table is always a constant from the caller.
func (s *pgStore) deleteEntry(ctx context.Context, table string, userID int, id string) (bool, error) {
	result, err := s.pool.Exec(ctx,
		"DELETE FROM "+table+" WHERE id = @id AND user_id = @userID",
		pgx.NamedArgs{"id": id, "userID": userID})
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

// earliestLogTime returns the first logged_at across food and exercise, or
// nil when the user has logged nothing.
func (s *pgStore) earliestLogTime(ctx context.Context, userID int) (*time.Time, error) {
	var earliest *time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT MIN(logged_at) FROM (
			SELECT logged_at FROM food_intake WHERE user_id = @userID
			UNION ALL
			SELECT logged_at FROM exercise_log WHERE user_id = @userID
		 ) AS entries`,
		pgx.NamedArgs{"userID": userID}).Scan(&earliest)
	return earliest, err
}

/* ─── Weight log ─────────────────────────────────────────────────────── */

func (s *pgStore) weightEntries(ctx context.Context, userID int, start, end string) ([]weightEntry, error) {
	return queryMany[weightEntry](ctx, s.pool,
		`SELECT * FROM weight_log
		 WHERE user_id = @userID AND date >= @start AND date <= @end
		 ORDER BY date ASC`,
		pgx.NamedArgs{"userID": userID, "start": start, "end": end})
}

// upsertWeight creates or replaces the entry for date. When the entry is the
// user's most recent one, the profile weight and derived targets follow it.
func (s *pgStore) upsertWeight(ctx context.Context, userID int, date string, weightKG float64) (weightEntry, error) {
	var entry weightEntry
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		entry, err = queryOne[weightEntry](ctx, tx,
			`INSERT INTO weight_log (user_id, date, weight_kg)
			 VALUES (@userID, @date, @weightKG)
			 ON CONFLICT (user_id, date) DO UPDATE SET weight_kg = EXCLUDED.weight_kg
			 RETURNING *`,
			pgx.NamedArgs{"userID": userID, "date": date, "weightKG": weightKG})
		if err != nil {
			return err
		}
		return syncProfileWeight(ctx, tx, userID)
	})
	return entry, err
}

// updateWeight partially updates an entry. Returns pgx.ErrNoRows when the
// entry does not exist or belongs to another user.
func (s *pgStore) updateWeight(ctx context.Context, userID int, id string, date *string, weightKG *float64) (weightEntry, error) {
	var entry weightEntry
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		entry, err = queryOne[weightEntry](ctx, tx,
			`UPDATE weight_log SET
				date      = COALESCE(@date, date),
				weight_kg = COALESCE(@weightKG, weight_kg)
			 WHERE id = @id AND user_id = @userID
			 RETURNING *`,
			pgx.NamedArgs{"id": id, "userID": userID, "date": date, "weightKG": weightKG})
		if err != nil {
			return err
		}
		return syncProfileWeight(ctx, tx, userID)
	})
	return entry, err
}

func (s *pgStore) deleteWeight(ctx context.Context, userID int, id string) (bool, error) {
	deleted := false
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx,
			"DELETE FROM weight_log WHERE id = @id AND user_id = @userID",
			pgx.NamedArgs{"id": id, "userID": userID})
		if err != nil {
			return err
		}
		deleted = result.RowsAffected() > 0
		if !deleted {
			return nil
		}
		return syncProfileWeight(ctx, tx, userID)
	})
	return deleted, err
}

// syncProfileWeight copies the newest weight_log entry into the profile and
// recomputes derived targets. No-op when the log is empty.
func syncProfileWeight(ctx context.Context, tx pgx.Tx, userID int) error {
	result, err := tx.Exec(ctx,
		`UPDATE profiles SET weight_kg = latest.weight_kg
		 FROM (SELECT weight_kg FROM weight_log WHERE user_id = @userID ORDER BY date DESC LIMIT 1) AS latest
		 WHERE profiles.user_id = @userID`,
		pgx.NamedArgs{"userID": userID})
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return nil
	}
	_, err = refreshDerived(ctx, tx, userID)
	return err
}

/* ─── Coach chat ─────────────────────────────────────────────────────── */

// chatHistory returns the newest limit messages in chronological order.
func (s *pgStore) chatHistory(ctx context.Context, userID, limit int) ([]chatMessage, error) {
	return queryMany[chatMessage](ctx, s.pool,
		`SELECT * FROM (
			SELECT * FROM chat_messages WHERE user_id = @userID
			ORDER BY created_at DESC LIMIT @limit
		 ) AS recent ORDER BY created_at ASC`,
		pgx.NamedArgs{"userID": userID, "limit": limit})
}

func (s *pgStore) insertChatMessage(ctx context.Context, m chatMessage) (chatMessage, error) {
	return queryOne[chatMessage](ctx, s.pool,
		`INSERT INTO chat_messages (id, user_id, role, content)
		 VALUES (@id, @userID, @role, @content)
		 RETURNING *`,
		pgx.NamedArgs{"id": m.ID, "userID": m.UserID, "role": m.Role, "content": m.Content})
}
