package store

import (
	"database/sql"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/example/ec-dispatch/internal/readmodel"
)

// PostgresReadStore implements ReadStoreInterface using PostgreSQL
type PostgresReadStore struct {
	db *sql.DB
	mu sync.RWMutex // for thread-safe read-modify-write in Update
}

// NewPostgresReadStore creates a new PostgreSQL-based read store
func NewPostgresReadStore(db *sql.DB) *PostgresReadStore {
	return &PostgresReadStore{db: db}
}

// Set stores a read model
func (rs *PostgresReadStore) Set(collection, id string, data any) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.setUnsafe(collection, id, data)
}

func (rs *PostgresReadStore) setUnsafe(collection, id string, data any) {
	switch collection {
	case "products":
		rs.setProduct(data.(*readmodel.ProductReadModel))
	case "carts":
		rs.setCart(data.(*readmodel.CartReadModel))
	case "orders":
		rs.setOrder(data.(*readmodel.OrderReadModel))
	case "inventory":
		rs.setInventory(data.(*readmodel.InventoryReadModel))
	case "inventory_movements":
		rs.insertMovement(data.(*readmodel.InventoryMovementReadModel))
	case "riders":
		rs.setRider(data.(*readmodel.RiderReadModel))
	case "users":
		rs.setUser(data.(*readmodel.UserReadModel))
	}
}

// Get retrieves a read model by id
func (rs *PostgresReadStore) Get(collection, id string) (any, bool) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return rs.getUnsafe(collection, id)
}

func (rs *PostgresReadStore) getUnsafe(collection, id string) (any, bool) {
	switch collection {
	case "products":
		return rs.getProduct(id)
	case "carts":
		return rs.getCart(id)
	case "orders":
		return rs.getOrder(id)
	case "inventory":
		return rs.getInventory(id)
	case "riders":
		return rs.getRider(id)
	case "users":
		return rs.getUser(id)
	}
	return nil, false
}

// GetAll retrieves all items in a collection
func (rs *PostgresReadStore) GetAll(collection string) []any {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	switch collection {
	case "products":
		return rs.getAllProducts()
	case "carts":
		return rs.getAllCarts()
	case "orders":
		return rs.getAllOrders()
	case "inventory":
		return rs.getAllInventory()
	case "inventory_movements":
		return rs.getAllMovements()
	case "riders":
		return rs.getAllRiders()
	case "users":
		return rs.getAllUsers()
	}
	return nil
}

// Delete removes a read model. The movement ledger is append-only and is
// deliberately not deletable through this path.
func (rs *PostgresReadStore) Delete(collection, id string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	var tableName string
	switch collection {
	case "products":
		tableName = "read_products"
	case "carts":
		tableName = "read_carts"
	case "orders":
		tableName = "read_orders"
	case "inventory":
		tableName = "read_inventory"
	case "riders":
		tableName = "read_riders"
	case "users":
		tableName = "read_users"
	default:
		return
	}

	_, err := rs.db.Exec("DELETE FROM "+tableName+" WHERE id = $1", id)
	if err != nil {
		log.Printf("[PostgresReadStore] Error deleting from %s: %v", collection, err)
	}
}

// Update modifies a read model using an update function
func (rs *PostgresReadStore) Update(collection, id string, updateFn func(current any) any) bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	current, found := rs.getUnsafe(collection, id)
	if !found {
		return false
	}

	rs.setUnsafe(collection, id, updateFn(current))
	return true
}

// Product operations

func (rs *PostgresReadStore) setProduct(p *readmodel.ProductReadModel) {
	_, err := rs.db.Exec(`
		INSERT INTO read_products (id, name, description, selling_price, stock, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			selling_price = EXCLUDED.selling_price,
			stock = EXCLUDED.stock,
			image_url = EXCLUDED.image_url,
			updated_at = EXCLUDED.updated_at
	`, p.ID, p.Name, p.Description, p.SellingPrice, p.Stock, p.ImageURL, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		log.Printf("[PostgresReadStore] Error setting product: %v", err)
	}
}

func (rs *PostgresReadStore) getProduct(id string) (*readmodel.ProductReadModel, bool) {
	var p readmodel.ProductReadModel
	err := rs.db.QueryRow(`
		SELECT id, name, description, selling_price, stock, image_url, created_at, updated_at
		FROM read_products WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Description, &p.SellingPrice, &p.Stock, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err != sql.ErrNoRows {
			log.Printf("[PostgresReadStore] Error getting product: %v", err)
		}
		return nil, false
	}
	return &p, true
}

func (rs *PostgresReadStore) getAllProducts() []any {
	rows, err := rs.db.Query(`
		SELECT id, name, description, selling_price, stock, image_url, created_at, updated_at
		FROM read_products ORDER BY created_at DESC
	`)
	if err != nil {
		log.Printf("[PostgresReadStore] Error getting all products: %v", err)
		return nil
	}
	defer rows.Close()

	var products []any
	for rows.Next() {
		var p readmodel.ProductReadModel
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.SellingPrice, &p.Stock, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
			log.Printf("[PostgresReadStore] Error scanning product: %v", err)
			continue
		}
		products = append(products, &p)
	}
	return products
}

// Cart operations

func (rs *PostgresReadStore) setCart(c *readmodel.CartReadModel) {
	itemsJSON, _ := json.Marshal(c.Items)
	_, err := rs.db.Exec(`
		INSERT INTO read_carts (id, user_id, items, total_price, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			items = EXCLUDED.items,
			total_price = EXCLUDED.total_price,
			updated_at = EXCLUDED.updated_at
	`, c.ID, c.UserID, itemsJSON, c.TotalPrice, time.Now())
	if err != nil {
		log.Printf("[PostgresReadStore] Error setting cart: %v", err)
	}
}

func (rs *PostgresReadStore) getCart(id string) (*readmodel.CartReadModel, bool) {
	var c readmodel.CartReadModel
	var itemsJSON []byte
	err := rs.db.QueryRow(`
		SELECT id, user_id, items, total_price FROM read_carts WHERE id = $1
	`, id).Scan(&c.ID, &c.UserID, &itemsJSON, &c.TotalPrice)
	if err != nil {
		if err != sql.ErrNoRows {
			log.Printf("[PostgresReadStore] Error getting cart: %v", err)
		}
		return nil, false
	}
	json.Unmarshal(itemsJSON, &c.Items)
	return &c, true
}

func (rs *PostgresReadStore) getAllCarts() []any {
	rows, err := rs.db.Query(`SELECT id, user_id, items, total_price FROM read_carts`)
	if err != nil {
		log.Printf("[PostgresReadStore] Error getting all carts: %v", err)
		return nil
	}
	defer rows.Close()

	var carts []any
	for rows.Next() {
		var c readmodel.CartReadModel
		var itemsJSON []byte
		if err := rows.Scan(&c.ID, &c.UserID, &itemsJSON, &c.TotalPrice); err != nil {
			log.Printf("[PostgresReadStore] Error scanning cart: %v", err)
			continue
		}
		json.Unmarshal(itemsJSON, &c.Items)
		carts = append(carts, &c)
	}
	return carts
}

// Order operations

func (rs *PostgresReadStore) setOrder(o *readmodel.OrderReadModel) {
	itemsJSON, _ := json.Marshal(o.Items)
	trackingJSON, _ := json.Marshal(o.TrackingUpdates)
	addressJSON, _ := json.Marshal(o.DeliveryAddress)
	var proofJSON []byte
	if o.ProofOfDelivery != nil {
		proofJSON, _ = json.Marshal(o.ProofOfDelivery)
	}

	_, err := rs.db.Exec(`
		INSERT INTO read_orders (
			id, user_id, items, total_amount, status, rider_status,
			assigned_rider, delivery_date, delivery_address, tracking_updates,
			proof_of_delivery, assigned_at, dispatched_at, delivered_at,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (id) DO UPDATE SET
			items = EXCLUDED.items,
			total_amount = EXCLUDED.total_amount,
			status = EXCLUDED.status,
			rider_status = EXCLUDED.rider_status,
			assigned_rider = EXCLUDED.assigned_rider,
			delivery_date = EXCLUDED.delivery_date,
			delivery_address = EXCLUDED.delivery_address,
			tracking_updates = EXCLUDED.tracking_updates,
			proof_of_delivery = EXCLUDED.proof_of_delivery,
			assigned_at = EXCLUDED.assigned_at,
			dispatched_at = EXCLUDED.dispatched_at,
			delivered_at = EXCLUDED.delivered_at,
			updated_at = EXCLUDED.updated_at
	`, o.ID, o.UserID, itemsJSON, o.TotalAmount, o.Status, o.RiderStatus,
		o.AssignedRider, o.DeliveryDate, addressJSON, trackingJSON,
		proofJSON, o.AssignedAt, o.DispatchedAt, o.DeliveredAt,
		o.CreatedAt, o.UpdatedAt)
	if err != nil {
		log.Printf("[PostgresReadStore] Error setting order: %v", err)
	}
}

func (rs *PostgresReadStore) getOrder(id string) (*readmodel.OrderReadModel, bool) {
	var o readmodel.OrderReadModel
	var itemsJSON, addressJSON, trackingJSON []byte
	var proofJSON sql.NullString
	err := rs.db.QueryRow(`
		SELECT id, user_id, items, total_amount, status, rider_status,
			assigned_rider, delivery_date, delivery_address, tracking_updates,
			proof_of_delivery, assigned_at, dispatched_at, delivered_at,
			created_at, updated_at
		FROM read_orders WHERE id = $1
	`, id).Scan(&o.ID, &o.UserID, &itemsJSON, &o.TotalAmount, &o.Status, &o.RiderStatus,
		&o.AssignedRider, &o.DeliveryDate, &addressJSON, &trackingJSON,
		&proofJSON, &o.AssignedAt, &o.DispatchedAt, &o.DeliveredAt,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if err != sql.ErrNoRows {
			log.Printf("[PostgresReadStore] Error getting order: %v", err)
		}
		return nil, false
	}
	json.Unmarshal(itemsJSON, &o.Items)
	json.Unmarshal(addressJSON, &o.DeliveryAddress)
	json.Unmarshal(trackingJSON, &o.TrackingUpdates)
	if proofJSON.Valid && proofJSON.String != "" {
		var proof readmodel.ProofReadModel
		if json.Unmarshal([]byte(proofJSON.String), &proof) == nil {
			o.ProofOfDelivery = &proof
		}
	}
	return &o, true
}

func (rs *PostgresReadStore) getAllOrders() []any {
	rows, err := rs.db.Query(`SELECT id FROM read_orders ORDER BY created_at DESC`)
	if err != nil {
		log.Printf("[PostgresReadStore] Error getting all orders: %v", err)
		return nil
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			continue
		}
		ids = append(ids, id)
	}

	var orders []any
	for _, id := range ids {
		if o, ok := rs.getOrder(id); ok {
			orders = append(orders, o)
		}
	}
	return orders
}

// Inventory operations

func (rs *PostgresReadStore) setInventory(inv *readmodel.InventoryReadModel) {
	_, err := rs.db.Exec(`
		INSERT INTO read_inventory (id, stock, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			stock = EXCLUDED.stock,
			updated_at = EXCLUDED.updated_at
	`, inv.ProductID, inv.Stock, time.Now())
	if err != nil {
		log.Printf("[PostgresReadStore] Error setting inventory: %v", err)
	}
}

func (rs *PostgresReadStore) getInventory(id string) (*readmodel.InventoryReadModel, bool) {
	var inv readmodel.InventoryReadModel
	err := rs.db.QueryRow(`
		SELECT id, stock, updated_at FROM read_inventory WHERE id = $1
	`, id).Scan(&inv.ProductID, &inv.Stock, &inv.UpdatedAt)
	if err != nil {
		if err != sql.ErrNoRows {
			log.Printf("[PostgresReadStore] Error getting inventory: %v", err)
		}
		return nil, false
	}
	return &inv, true
}

func (rs *PostgresReadStore) getAllInventory() []any {
	rows, err := rs.db.Query(`SELECT id, stock, updated_at FROM read_inventory`)
	if err != nil {
		log.Printf("[PostgresReadStore] Error getting all inventory: %v", err)
		return nil
	}
	defer rows.Close()

	var items []any
	for rows.Next() {
		var inv readmodel.InventoryReadModel
		if err := rows.Scan(&inv.ProductID, &inv.Stock, &inv.UpdatedAt); err != nil {
			log.Printf("[PostgresReadStore] Error scanning inventory: %v", err)
			continue
		}
		items = append(items, &inv)
	}
	return items
}

// Inventory movement ledger (insert-only)

func (rs *PostgresReadStore) insertMovement(m *readmodel.InventoryMovementReadModel) {
	_, err := rs.db.Exec(`
		INSERT INTO read_inventory_movements (id, product_id, actor_id, order_id, quantity, movement_type, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`, m.ID, m.ProductID, m.ActorID, m.OrderID, m.Quantity, m.Type, m.Reason, m.CreatedAt)
	if err != nil {
		log.Printf("[PostgresReadStore] Error inserting movement: %v", err)
	}
}

func (rs *PostgresReadStore) getAllMovements() []any {
	rows, err := rs.db.Query(`
		SELECT id, product_id, actor_id, order_id, quantity, movement_type, reason, created_at
		FROM read_inventory_movements ORDER BY created_at ASC
	`)
	if err != nil {
		log.Printf("[PostgresReadStore] Error getting movements: %v", err)
		return nil
	}
	defer rows.Close()

	var movements []any
	for rows.Next() {
		var m readmodel.InventoryMovementReadModel
		if err := rows.Scan(&m.ID, &m.ProductID, &m.ActorID, &m.OrderID, &m.Quantity, &m.Type, &m.Reason, &m.CreatedAt); err != nil {
			log.Printf("[PostgresReadStore] Error scanning movement: %v", err)
			continue
		}
		movements = append(movements, &m)
	}
	return movements
}

// Rider operations

func (rs *PostgresReadStore) setRider(r *readmodel.RiderReadModel) {
	locationJSON, _ := json.Marshal(r.CurrentLocation)
	_, err := rs.db.Exec(`
		INSERT INTO read_riders (
			id, name, email, password_hash, phone, vehicle_type, is_active,
			status, current_location, total_deliveries, completed_deliveries,
			cancelled_deliveries, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			password_hash = EXCLUDED.password_hash,
			phone = EXCLUDED.phone,
			vehicle_type = EXCLUDED.vehicle_type,
			is_active = EXCLUDED.is_active,
			status = EXCLUDED.status,
			current_location = EXCLUDED.current_location,
			total_deliveries = EXCLUDED.total_deliveries,
			completed_deliveries = EXCLUDED.completed_deliveries,
			cancelled_deliveries = EXCLUDED.cancelled_deliveries,
			updated_at = EXCLUDED.updated_at
	`, r.ID, r.Name, r.Email, r.PasswordHash, r.Phone, r.VehicleType, r.IsActive,
		r.Status, locationJSON, r.TotalDeliveries, r.CompletedDeliveries,
		r.CancelledDeliveries, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		log.Printf("[PostgresReadStore] Error setting rider: %v", err)
	}
}

func (rs *PostgresReadStore) getRider(id string) (*readmodel.RiderReadModel, bool) {
	var r readmodel.RiderReadModel
	var locationJSON []byte
	err := rs.db.QueryRow(`
		SELECT id, name, email, password_hash, phone, vehicle_type, is_active,
			status, current_location, total_deliveries, completed_deliveries,
			cancelled_deliveries, created_at, updated_at
		FROM read_riders WHERE id = $1
	`, id).Scan(&r.ID, &r.Name, &r.Email, &r.PasswordHash, &r.Phone, &r.VehicleType, &r.IsActive,
		&r.Status, &locationJSON, &r.TotalDeliveries, &r.CompletedDeliveries,
		&r.CancelledDeliveries, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if err != sql.ErrNoRows {
			log.Printf("[PostgresReadStore] Error getting rider: %v", err)
		}
		return nil, false
	}
	json.Unmarshal(locationJSON, &r.CurrentLocation)
	return &r, true
}

func (rs *PostgresReadStore) getAllRiders() []any {
	rows, err := rs.db.Query(`SELECT id FROM read_riders ORDER BY created_at DESC`)
	if err != nil {
		log.Printf("[PostgresReadStore] Error getting all riders: %v", err)
		return nil
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			continue
		}
		ids = append(ids, id)
	}

	var riders []any
	for _, id := range ids {
		if r, ok := rs.getRider(id); ok {
			riders = append(riders, r)
		}
	}
	return riders
}

// User operations

func (rs *PostgresReadStore) setUser(u *readmodel.UserReadModel) {
	_, err := rs.db.Exec(`
		INSERT INTO read_users (id, email, password_hash, name, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			password_hash = EXCLUDED.password_hash,
			name = EXCLUDED.name,
			role = EXCLUDED.role,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at
	`, u.ID, u.Email, u.PasswordHash, u.Name, u.Role, u.IsActive, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		log.Printf("[PostgresReadStore] Error setting user: %v", err)
	}
}

func (rs *PostgresReadStore) getUser(id string) (*readmodel.UserReadModel, bool) {
	var u readmodel.UserReadModel
	err := rs.db.QueryRow(`
		SELECT id, email, password_hash, name, role, is_active, created_at, updated_at
		FROM read_users WHERE id = $1
	`, id).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if err != sql.ErrNoRows {
			log.Printf("[PostgresReadStore] Error getting user: %v", err)
		}
		return nil, false
	}
	return &u, true
}

func (rs *PostgresReadStore) getAllUsers() []any {
	rows, err := rs.db.Query(`
		SELECT id, email, password_hash, name, role, is_active, created_at, updated_at
		FROM read_users ORDER BY created_at DESC
	`)
	if err != nil {
		log.Printf("[PostgresReadStore] Error getting all users: %v", err)
		return nil
	}
	defer rows.Close()

	var users []any
	for rows.Next() {
		var u readmodel.UserReadModel
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
			log.Printf("[PostgresReadStore] Error scanning user: %v", err)
			continue
		}
		users = append(users, &u)
	}
	return users
}
