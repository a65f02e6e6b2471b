package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MuellerConstantin/taskcare-service/internal/domain"
)

// Порядок выдачи досок: по времени создания, при равенстве по ID
const boardOrder = `ORDER BY b.created_at, b.id`

const selectBoardColumns = `b.id, b.name, b.created_by, b.created_at, b.created_at_offset`

// BoardRepository реализует repository.BoardRepository для PostgreSQL
type BoardRepository struct {
	db     *pgxpool.Pool
	mapper boardMapper
}

// NewBoardRepository создает новый экземпляр BoardRepository
func NewBoardRepository(db *pgxpool.Pool) *BoardRepository {
	return &BoardRepository{db: db}
}

// HasMember проверяет членство пользователя без загрузки агрегата
func (r *BoardRepository) HasMember(ctx context.Context, boardID uuid.UUID, username string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM board_members WHERE board_id = $1 AND username = $2)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, boardID, username).Scan(&exists); err != nil {
		return false, err
	}

	return exists, nil
}

// HasMemberWithRole проверяет членство пользователя с точным совпадением имени роли
func (r *BoardRepository) HasMemberWithRole(ctx context.Context, boardID uuid.UUID, username string, role domain.Role) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM board_members WHERE board_id = $1 AND username = $2 AND role = $3)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, boardID, username, role.Name()).Scan(&exists); err != nil {
		return false, err
	}

	return exists, nil
}

// FindAllWithMembership возвращает страницу досок, в которых состоит пользователь
func (r *BoardRepository) FindAllWithMembership(ctx context.Context, username string, settings domain.PageSettings) (*domain.Page[*domain.Board], error) {
	countQuery := `
		SELECT COUNT(*)
		FROM boards b
		INNER JOIN board_members m ON m.board_id = b.id
		WHERE m.username = $1
	`

	pageQuery := `
		SELECT ` + selectBoardColumns + `
		FROM boards b
		INNER JOIN board_members m ON m.board_id = b.id
		WHERE m.username = $1
		` + boardOrder + `
		LIMIT $2 OFFSET $3
	`

	return r.findPage(ctx, settings, countQuery, pageQuery, username)
}

// FindByID получает доску по ID; второй результат false если доски нет
func (r *BoardRepository) FindByID(ctx context.Context, boardID uuid.UUID) (*domain.Board, bool, error) {
	query := `
		SELECT ` + selectBoardColumns + `
		FROM boards b
		WHERE b.id = $1
	`

	var rec *boardRecord
	err := r.readTx(ctx, func(tx pgx.Tx) error {
		var err error
		rec, err = scanBoard(tx.QueryRow(ctx, query, boardID))
		if err != nil {
			return err
		}
		return loadChildren(ctx, tx, []*boardRecord{rec})
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	board, err := r.mapper.mapToDomain(rec)
	if err != nil {
		return nil, false, err
	}

	return board, true, nil
}

// FindAll возвращает страницу всех досок
func (r *BoardRepository) FindAll(ctx context.Context, settings domain.PageSettings) (*domain.Page[*domain.Board], error) {
	countQuery := `SELECT COUNT(*) FROM boards`

	pageQuery := `
		SELECT ` + selectBoardColumns + `
		FROM boards b
		` + boardOrder + `
		LIMIT $1 OFFSET $2
	`

	return r.findPage(ctx, settings, countQuery, pageQuery)
}

// ExistsByID проверяет существование доски
func (r *BoardRepository) ExistsByID(ctx context.Context, boardID uuid.UUID) (bool, error) {
	return existsBoard(ctx, r.db, boardID)
}

// DeleteByID удаляет доску; участники и задачи удаляются каскадно
func (r *BoardRepository) DeleteByID(ctx context.Context, boardID uuid.UUID) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() {
		_ = tx.Rollback(ctx) // Ignore error as it will fail if transaction was committed
	}()

	exists, err := existsBoard(ctx, tx, boardID)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}

	result, err := tx.Exec(ctx, `DELETE FROM boards WHERE id = $1`, boardID)
	if err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}

	return result.RowsAffected() > 0, nil
}

// Save атомарно сохраняет доску: строку доски, строки участников и строки задач.
// Существующие участники и задачи доски заменяются содержимым агрегата.
func (r *BoardRepository) Save(ctx context.Context, board *domain.Board) error {
	// Нарушение инвариантов отклоняется до обращения к БД
	if err := board.Validate(); err != nil {
		return err
	}

	// Start transaction
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx) // Ignore error as it will fail if transaction was committed
	}()

	rec, err := r.mapper.mapToRecord(ctx, board, txUserFinder{q: tx})
	if err != nil {
		return err
	}

	batch := buildSaveBatch(rec)
	results := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return mapWriteError(err)
		}
	}
	if err := results.Close(); err != nil {
		return mapWriteError(err)
	}

	// Commit transaction
	return tx.Commit(ctx)
}

// buildSaveBatch собирает единый составной запрос на запись агрегата
func buildSaveBatch(rec *boardRecord) *pgx.Batch {
	batch := &pgx.Batch{}

	batch.Queue(`
		INSERT INTO boards (id, name, created_by, created_at, created_at_offset)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    created_by = EXCLUDED.created_by,
		    created_at = EXCLUDED.created_at,
		    created_at_offset = EXCLUDED.created_at_offset
	`, rec.ID, rec.Name, rec.CreatedBy, rec.CreatedAt, rec.CreatedAtOffset)

	batch.Queue(`DELETE FROM board_members WHERE board_id = $1`, rec.ID)
	for _, m := range rec.Members {
		batch.Queue(`
			INSERT INTO board_members (board_id, username, role)
			VALUES ($1, $2, $3)
		`, m.BoardID, m.User.Username, m.Role)
	}

	batch.Queue(`DELETE FROM tasks WHERE board_id = $1`, rec.ID)
	for _, t := range rec.Tasks {
		batch.Queue(`
			INSERT INTO tasks (
				id, board_id, name, description, priority, status, created_by,
				created_at, created_at_offset, expires_at, expires_at_offset
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`, t.ID, t.BoardID, t.Name, t.Description, t.Priority, t.Status, t.CreatedBy,
			t.CreatedAt, t.CreatedAtOffset, t.ExpiresAt, t.ExpiresAtOffset)
	}

	return batch
}

// mapWriteError преобразует ошибки ограничений PostgreSQL в доменные ошибки
func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case codeForeignKeyViolation:
		// Пользователь удален между проверкой и вставкой
		return fmt.Errorf("%w: %s", domain.ErrMemberUserNotFound, pgErr.Detail)
	case codeUniqueViolation:
		switch pgErr.ConstraintName {
		case "board_members_pkey":
			return fmt.Errorf("%w: %s", domain.ErrDuplicateMember, pgErr.Detail)
		case "tasks_pkey":
			return fmt.Errorf("%w: %s", domain.ErrDuplicateTask, pgErr.Detail)
		}
	}

	return err
}

// findPage выполняет подсчет и выборку страницы в одной читающей транзакции.
// Параметры LIMIT и OFFSET передаются последними аргументами pageQuery.
func (r *BoardRepository) findPage(ctx context.Context, settings domain.PageSettings, countQuery, pageQuery string, args ...any) (*domain.Page[*domain.Board], error) {
	// Параметры страницы используются как есть, без подстановки значений
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	var (
		total   int64
		records []*boardRecord
	)
	err := r.readTx(ctx, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
			return err
		}

		pageArgs := append(append([]any{}, args...), settings.PerPage, settings.Offset())
		rows, err := tx.Query(ctx, pageQuery, pageArgs...)
		if err != nil {
			return err
		}
		for rows.Next() {
			rec, err := scanBoard(rows)
			if err != nil {
				rows.Close()
				return err
			}
			records = append(records, rec)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		return loadChildren(ctx, tx, records)
	})
	if err != nil {
		return nil, err
	}

	return r.mapper.mapPageToDomain(records, settings, total)
}

// readTx выполняет чтение агрегатов в согласованном снимке
func (r *BoardRepository) readTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func existsBoard(ctx context.Context, q querier, boardID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM boards WHERE id = $1)`

	var exists bool
	if err := q.QueryRow(ctx, query, boardID).Scan(&exists); err != nil {
		return false, err
	}

	return exists, nil
}

func scanBoard(row pgx.Row) (*boardRecord, error) {
	var rec boardRecord
	if err := row.Scan(&rec.ID, &rec.Name, &rec.CreatedBy, &rec.CreatedAt, &rec.CreatedAtOffset); err != nil {
		return nil, err
	}
	return &rec, nil
}

// loadChildren загружает участников и задачи для набора досок
func loadChildren(ctx context.Context, q querier, records []*boardRecord) error {
	if len(records) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(records))
	byID := make(map[uuid.UUID]*boardRecord, len(records))
	for _, rec := range records {
		ids = append(ids, rec.ID)
		byID[rec.ID] = rec
		rec.Members = []memberRecord{}
		rec.Tasks = []taskRecord{}
	}

	membersQuery := `
		SELECT m.board_id, u.username, u.display_name, m.role
		FROM board_members m
		INNER JOIN users u ON u.username = m.username
		WHERE m.board_id = ANY($1)
		ORDER BY m.board_id, u.username
	`

	rows, err := q.Query(ctx, membersQuery, ids)
	if err != nil {
		return err
	}
	for rows.Next() {
		var m memberRecord
		if err := rows.Scan(&m.BoardID, &m.User.Username, &m.User.DisplayName, &m.Role); err != nil {
			rows.Close()
			return err
		}
		byID[m.BoardID].Members = append(byID[m.BoardID].Members, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	tasksQuery := `
		SELECT id, board_id, name, description, priority, status, created_by,
		       created_at, created_at_offset, expires_at, expires_at_offset
		FROM tasks
		WHERE board_id = ANY($1)
		ORDER BY created_at, id
	`

	rows, err = q.Query(ctx, tasksQuery, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var t taskRecord
		if err := rows.Scan(
			&t.ID,
			&t.BoardID,
			&t.Name,
			&t.Description,
			&t.Priority,
			&t.Status,
			&t.CreatedBy,
			&t.CreatedAt,
			&t.CreatedAtOffset,
			&t.ExpiresAt,
			&t.ExpiresAtOffset,
		); err != nil {
			return err
		}
		byID[t.BoardID].Tasks = append(byID[t.BoardID].Tasks, t)
	}

	return rows.Err()
}
