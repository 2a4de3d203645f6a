package api

import (
	"net/http"
	"strconv"
	"sync"

	"duck-storefront/internal/models"

	"github.com/gin-gonic/gin"
)

// fakeBackend speaks the inventory/account backend's HTTP contract over in-memory state
type fakeBackend struct {
	mu       sync.Mutex
	accounts map[int64]models.Account
	products map[int64]models.Duck
	carts    map[int64]map[int64]int
	customs  map[int64][]models.CustomDuck
	nextID   int64
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		accounts: map[int64]models.Account{},
		products: map[int64]models.Duck{},
		carts:    map[int64]map[int64]int{},
		customs:  map[int64][]models.CustomDuck{},
		nextID:   100,
	}
}

func paramID(c *gin.Context, name string) int64 {
	id, _ := strconv.ParseInt(c.Param(name), 10, 64)
	return id
}

func (b *fakeBackend) router() *gin.Engine {
	r := gin.New()

	r.GET("/login", func(c *gin.Context) {
		b.mu.Lock()
		defer b.mu.Unlock()
		for _, a := range b.accounts {
			if a.Username == c.Query("username") {
				if a.PlainPassword != c.Query("password") {
					c.Status(http.StatusConflict)
					return
				}
				c.JSON(http.StatusOK, a)
				return
			}
		}
		c.Status(http.StatusNotFound)
	})

	r.GET("/accounts/:id", func(c *gin.Context) {
		b.mu.Lock()
		defer b.mu.Unlock()
		a, ok := b.accounts[paramID(c, "id")]
		if !ok {
			c.Status(http.StatusNotFound)
			return
		}
		c.JSON(http.StatusOK, a)
	})

	r.GET("/accounts", func(c *gin.Context) {
		b.mu.Lock()
		defer b.mu.Unlock()
		out := []models.Account{}
		for _, a := range b.accounts {
			out = append(out, a)
		}
		c.JSON(http.StatusOK, out)
	})

	r.POST("/accounts", func(c *gin.Context) {
		var a models.Account
		if err := c.ShouldBindJSON(&a); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		for _, existing := range b.accounts {
			if existing.Username == a.Username {
				c.Status(http.StatusConflict)
				return
			}
		}
		if len(a.PlainPassword) < 8 {
			c.Status(http.StatusNotAcceptable)
			return
		}
		b.nextID++
		a.ID = b.nextID
		b.accounts[a.ID] = a
		c.JSON(http.StatusOK, a)
	})

	r.PUT("/accounts", func(c *gin.Context) {
		var a models.Account
		if err := c.ShouldBindJSON(&a); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.accounts[a.ID]; !ok {
			c.Status(http.StatusNotFound)
			return
		}
		if len(a.PlainPassword) < 8 {
			c.Status(http.StatusUnprocessableEntity)
			return
		}
		b.accounts[a.ID] = a
		c.JSON(http.StatusOK, a)
	})

	r.GET("/products", func(c *gin.Context) {
		b.mu.Lock()
		defer b.mu.Unlock()
		out := []models.Duck{}
		for _, d := range b.products {
			out = append(out, d)
		}
		c.JSON(http.StatusOK, out)
	})

	r.GET("/products/:id", func(c *gin.Context) {
		b.mu.Lock()
		defer b.mu.Unlock()
		d, ok := b.products[paramID(c, "id")]
		if !ok {
			c.Status(http.StatusNotFound)
			return
		}
		c.JSON(http.StatusOK, d)
	})

	r.DELETE("/products/:id", func(c *gin.Context) {
		b.mu.Lock()
		defer b.mu.Unlock()
		id := paramID(c, "id")
		if _, ok := b.products[id]; !ok {
			c.Status(http.StatusNotFound)
			return
		}
		delete(b.products, id)
		c.Status(http.StatusOK)
	})

	r.GET("/cart/:id", func(c *gin.Context) {
		b.mu.Lock()
		defer b.mu.Unlock()
		id := paramID(c, "id")
		if b.carts[id] == nil {
			b.carts[id] = map[int64]int{}
		}
		c.JSON(http.StatusOK, models.Cart{ID: id, Items: b.carts[id]})
	})

	r.PUT("/cart", func(c *gin.Context) {
		var cart models.Cart
		if err := c.ShouldBindJSON(&cart); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		b.carts[cart.ID] = cart.Items
		c.JSON(http.StatusOK, cart)
	})

	r.GET("/cart/:id/validate", func(c *gin.Context) {
		b.mu.Lock()
		defer b.mu.Unlock()
		id := paramID(c, "id")
		items := b.carts[id]
		if len(items) == 0 {
			c.Status(http.StatusNotFound)
			return
		}
		corrected, adjusted := map[int64]int{}, false
		for pid, qty := range items {
			stock := b.products[pid].Quantity
			if qty > stock {
				adjusted = true
				qty = stock
			}
			if qty > 0 {
				corrected[pid] = qty
			}
		}
		if adjusted {
			c.JSON(http.StatusOK, models.Cart{ID: id, Items: corrected})
			return
		}
		c.Status(http.StatusOK)
	})

	r.POST("/cart/:id/checkout", func(c *gin.Context) {
		b.mu.Lock()
		defer b.mu.Unlock()
		id := paramID(c, "id")
		items := b.carts[id]
		if len(items) == 0 {
			c.Status(http.StatusNotFound)
			return
		}
		for pid, qty := range items {
			if qty > b.products[pid].Quantity {
				c.Status(http.StatusUnprocessableEntity)
				return
			}
		}
		for pid, qty := range items {
			d := b.products[pid]
			d.Quantity -= qty
			b.products[pid] = d
		}
		b.carts[id] = map[int64]int{}
		c.Status(http.StatusOK)
	})

	r.GET("/custom-ducks/:account", func(c *gin.Context) {
		b.mu.Lock()
		defer b.mu.Unlock()
		ducks := b.customs[paramID(c, "account")]
		if len(ducks) == 0 {
			c.Status(http.StatusNoContent)
			return
		}
		c.JSON(http.StatusOK, ducks)
	})

	r.DELETE("/custom-ducks/:account/:duck", func(c *gin.Context) {
		b.mu.Lock()
		defer b.mu.Unlock()
		account, duck := paramID(c, "account"), paramID(c, "duck")
		kept := []models.CustomDuck{}
		for _, d := range b.customs[account] {
			if d.ID != duck {
				kept = append(kept, d)
			}
		}
		b.customs[account] = kept
		c.Status(http.StatusOK)
	})

	return r
}
