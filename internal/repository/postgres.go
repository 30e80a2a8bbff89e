package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"blackcoffe/internal/domain"
)

// Connect opens a pgx pool and verifies the connection.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = 8
	cfg.MinConns = 1
	cfg.HealthCheckPeriod = 30 * time.Second
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		price NUMERIC(12,2) NOT NULL,
		is_available BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL,
		customer_name TEXT NOT NULL,
		customer_phone TEXT NOT NULL DEFAULT '',
		customer_nit TEXT NOT NULL DEFAULT '',
		service_type TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		total_amount NUMERIC(12,2) NOT NULL,
		invoice_number TEXT,
		external_ref TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS orders_external_ref_key
		ON orders (external_ref) WHERE external_ref <> ''`,
	`CREATE UNIQUE INDEX IF NOT EXISTS orders_invoice_number_key
		ON orders (invoice_number)`,
	`CREATE SEQUENCE IF NOT EXISTS invoice_seq`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id BIGSERIAL PRIMARY KEY,
		order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		product_id UUID NOT NULL,
		product_name TEXT NOT NULL,
		variant TEXT NOT NULL DEFAULT '',
		quantity INT NOT NULL CHECK (quantity >= 1),
		unit_price NUMERIC(12,2) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS cafe_tables (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		capacity INT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS reservations (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL,
		table_id UUID NOT NULL REFERENCES cafe_tables(id),
		reservation_at TIMESTAMPTZ NOT NULL,
		party_size INT NOT NULL,
		status TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	// the database, not the service, arbitrates slot uniqueness
	`CREATE UNIQUE INDEX IF NOT EXISTS reservations_slot_key
		ON reservations (table_id, reservation_at)
		WHERE status IN ('Pendiente','Confirmada')`,
}

// Migrate applies the schema statements in order. Each statement is
// idempotent, so re-running on startup is safe.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func scanDecimal(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}

// PGCatalog implements CatalogRepository on Postgres.
type PGCatalog struct{ DB *pgxpool.Pool }

var _ CatalogRepository = (*PGCatalog)(nil)

func (r *PGCatalog) GetAvailableProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.Product, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, name, price::text, is_available
		FROM products
		WHERE id = ANY($1) AND is_available`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID]domain.Product, len(ids))
	for rows.Next() {
		var p domain.Product
		var price string
		if err := rows.Scan(&p.ID, &p.Name, &price, &p.IsAvailable); err != nil {
			return nil, err
		}
		if p.Price, err = scanDecimal(price); err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

func (r *PGCatalog) UpsertProduct(ctx context.Context, p *domain.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := r.DB.Exec(ctx, `
		INSERT INTO products (id, name, price, is_available)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, price = EXCLUDED.price, is_available = EXCLUDED.is_available`,
		p.ID, p.Name, p.Price.StringFixed(2), p.IsAvailable)
	return err
}

func (r *PGCatalog) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, name, price::text, is_available FROM products ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		var p domain.Product
		var price string
		if err := rows.Scan(&p.ID, &p.Name, &price, &p.IsAvailable); err != nil {
			return nil, err
		}
		if p.Price, err = scanDecimal(price); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// PGOrders implements OrderRepository on Postgres.
type PGOrders struct{ DB *pgxpool.Pool }

var _ OrderRepository = (*PGOrders)(nil)

func (r *PGOrders) Create(ctx context.Context, o *domain.Order) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o.ID = uuid.New()
	o.CreatedAt = time.Now().UTC()
	_, err = tx.Exec(ctx, `
		INSERT INTO orders (id, user_id, customer_name, customer_phone, customer_nit,
			service_type, notes, status, total_amount, external_ref, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		o.ID, o.UserID, o.CustomerName, o.CustomerPhone, o.CustomerNit,
		o.ServiceType, o.Notes, string(o.Status), o.TotalAmount.StringFixed(2),
		o.ExternalRef, o.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}

	for _, it := range o.Items {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items (order_id, product_id, product_name, variant, quantity, unit_price)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			o.ID, it.ProductID, it.ProductName, it.Variant, it.Quantity, it.UnitPrice.StringFixed(2))
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

const orderColumns = `id, user_id, customer_name, customer_phone, customer_nit,
	service_type, notes, status, total_amount::text, COALESCE(invoice_number, ''),
	external_ref, created_at`

func (r *PGOrders) scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	var total string
	var status string
	err := row.Scan(&o.ID, &o.UserID, &o.CustomerName, &o.CustomerPhone, &o.CustomerNit,
		&o.ServiceType, &o.Notes, &status, &total, &o.InvoiceNumber,
		&o.ExternalRef, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	o.Status = domain.OrderStatus(status)
	if o.TotalAmount, err = scanDecimal(total); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *PGOrders) loadItems(ctx context.Context, o *domain.Order) error {
	rows, err := r.DB.Query(ctx, `
		SELECT product_id, product_name, variant, quantity, unit_price::text
		FROM order_items WHERE order_id = $1 ORDER BY id`, o.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var it domain.OrderItem
		var price string
		if err := rows.Scan(&it.ProductID, &it.ProductName, &it.Variant, &it.Quantity, &price); err != nil {
			return err
		}
		if it.UnitPrice, err = scanDecimal(price); err != nil {
			return err
		}
		o.Items = append(o.Items, it)
	}
	return rows.Err()
}

func (r *PGOrders) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	o, err := r.scanOrder(r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *PGOrders) GetByExternalRef(ctx context.Context, ref string) (*domain.Order, error) {
	o, err := r.scanOrder(r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE external_ref = $1`, ref))
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *PGOrders) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Order, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		o, err := r.scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if err := r.loadItems(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *PGOrders) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.OrderStatus) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE orders SET status = $3 WHERE id = $1 AND status = $2`,
		id, string(from), string(to))
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 1 {
		return nil
	}
	var exists bool
	if err := r.DB.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrConflict
}

// AssignInvoiceNumber mints the next sequence value only when the order
// has no number yet. The row lock taken by UPDATE serializes concurrent
// first requests; COALESCE keeps an already-assigned number.
func (r *PGOrders) AssignInvoiceNumber(ctx context.Context, id uuid.UUID) (string, error) {
	var number string
	err := r.DB.QueryRow(ctx, `
		UPDATE orders
		SET invoice_number = COALESCE(invoice_number, 'BC-' || lpad(nextval('invoice_seq')::text, 6, '0'))
		WHERE id = $1
		RETURNING invoice_number`, id).Scan(&number)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return number, err
}

// PGTables implements TableRepository on Postgres.
type PGTables struct{ DB *pgxpool.Pool }

var _ TableRepository = (*PGTables)(nil)

func (r *PGTables) GetActive(ctx context.Context, id uuid.UUID) (*domain.CafeTable, error) {
	var t domain.CafeTable
	err := r.DB.QueryRow(ctx, `
		SELECT id, name, capacity, is_active FROM cafe_tables
		WHERE id = $1 AND is_active`, id).
		Scan(&t.ID, &t.Name, &t.Capacity, &t.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *PGTables) Upsert(ctx context.Context, t *domain.CafeTable) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	_, err := r.DB.Exec(ctx, `
		INSERT INTO cafe_tables (id, name, capacity, is_active)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, capacity = EXCLUDED.capacity, is_active = EXCLUDED.is_active`,
		t.ID, t.Name, t.Capacity, t.IsActive)
	return err
}

// PGReservations implements ReservationRepository on Postgres.
type PGReservations struct{ DB *pgxpool.Pool }

var _ ReservationRepository = (*PGReservations)(nil)

func (r *PGReservations) Create(ctx context.Context, res *domain.Reservation) error {
	res.ID = uuid.New()
	res.CreatedAt = time.Now().UTC()
	_, err := r.DB.Exec(ctx, `
		INSERT INTO reservations (id, user_id, table_id, reservation_at, party_size, status, notes, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		res.ID, res.UserID, res.TableID, res.ReservationAt, res.PartySize,
		string(res.Status), res.Notes, res.CreatedAt)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

const reservationColumns = `r.id, r.user_id, r.table_id, t.name, r.reservation_at,
	r.party_size, r.status, r.notes, r.created_at`

func scanReservations(rows pgx.Rows) ([]domain.Reservation, error) {
	defer rows.Close()
	var out []domain.Reservation
	for rows.Next() {
		var res domain.Reservation
		var status string
		if err := rows.Scan(&res.ID, &res.UserID, &res.TableID, &res.TableName,
			&res.ReservationAt, &res.PartySize, &status, &res.Notes, &res.CreatedAt); err != nil {
			return nil, err
		}
		res.Status = domain.ReservationStatus(status)
		out = append(out, res)
	}
	return out, rows.Err()
}

func (r *PGReservations) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Reservation, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations r JOIN cafe_tables t ON t.id = r.table_id
		WHERE r.user_id = $1 ORDER BY r.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	return scanReservations(rows)
}

func (r *PGReservations) ListAll(ctx context.Context) ([]domain.Reservation, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations r JOIN cafe_tables t ON t.id = r.table_id
		ORDER BY r.created_at DESC`)
	if err != nil {
		return nil, err
	}
	return scanReservations(rows)
}

func (r *PGReservations) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ReservationStatus) error {
	ct, err := r.DB.Exec(ctx, `UPDATE reservations SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
