package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"duck-storefront/internal/gateway"
	"duck-storefront/internal/models"
	"duck-storefront/internal/notify"
	"duck-storefront/internal/session"
	"duck-storefront/internal/util"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"go.uber.org/zap"
)

const (
	pathCatalog   = "/catalog"
	pathInventory = "/inventory"
	pathProfile   = "/profile"
)

// LoginResult is a started session and where its account belongs
type LoginResult struct {
	Session  *session.Session
	Redirect string
}

// ProfileUpdate carries the shipping and payment fields a buyer may change; None leaves a field as is
type ProfileUpdate struct {
	FirstName mo.Option[string] `json:"firstName"`
	LastName  mo.Option[string] `json:"lastName"`
	Address   mo.Option[string] `json:"address"`
	City      mo.Option[string] `json:"city"`
	ZipCode   mo.Option[string] `json:"zipCode"`
	Card      mo.Option[string] `json:"card"`
	ExpDate   mo.Option[string] `json:"expDate"`
	CVV       mo.Option[int]    `json:"cvv"`
}

// apply copies the set fields onto the account and returns the first field message that fails
func (u ProfileUpdate) apply(account *models.Account) string {
	if card, ok := u.Card.Get(); ok && card != "" && !cardNumberPattern.MatchString(card) {
		return "card must be in the form XXXX XXXX XXXX XXXX."
	}
	if card, ok := u.Card.Get(); ok && card != "" && !passesLuhn(strings.ReplaceAll(card, " ", "")) {
		return "card is not a valid card number."
	}
	if exp, ok := u.ExpDate.Get(); ok && exp != "" && !expirationPattern.MatchString(exp) {
		return "expDate must be in the form of MM/YYYY."
	}
	if cvv, ok := u.CVV.Get(); ok && (cvv < 0 || cvv > 999) {
		return "cvv must be in the form of XXX."
	}

	account.FirstName = u.FirstName.OrElse(account.FirstName)
	account.LastName = u.LastName.OrElse(account.LastName)
	account.Address = u.Address.OrElse(account.Address)
	account.City = u.City.OrElse(account.City)
	account.ZipCode = u.ZipCode.OrElse(account.ZipCode)
	account.Card = u.Card.OrElse(account.Card)
	account.ExpDate = u.ExpDate.OrElse(account.ExpDate)
	account.CVV = u.CVV.OrElse(account.CVV)
	return ""
}

// StorefrontService handles the storefront's account, cart and inventory operations
type StorefrontService struct {
	accounts  AccountGateway
	inventory InventoryGateway
	carts     CartGateway
	sessions  session.Store
	inbox     notify.Inbox
	loader    *PageLoader
	logger    *zap.Logger
}

// NewStorefrontService creates a new storefront service
func NewStorefrontService(
	accounts AccountGateway,
	inventory InventoryGateway,
	carts CartGateway,
	sessions session.Store,
	inbox notify.Inbox,
	loader *PageLoader,
) *StorefrontService {
	return &StorefrontService{
		accounts:  accounts,
		inventory: inventory,
		carts:     carts,
		sessions:  sessions,
		inbox:     inbox,
		loader:    loader,
		logger:    util.GetLogger(),
	}
}

// Login starts a session. Unknown users and wrong passwords get the same message.
func (s *StorefrontService) Login(ctx context.Context, username, password string, sink notify.Sink) (*LoginResult, error) {
	ctx, span := util.StartSpan(ctx, "StorefrontService.Login")
	defer span.End()

	found, err := s.accounts.Login(ctx, username, password)
	if err != nil {
		util.FailSpan(span, err)
		s.logger.Error("Login failed", zap.String("username", username), zap.Error(err))
		sink.Error(msgGenericFailure)
		return nil, err
	}
	account, ok := found.Get()
	if !ok {
		sink.Error(msgInvalidLogin)
		return nil, ErrLoginFailed
	}

	account.PlainPassword = ""
	sess := session.New(account)
	if err := s.sessions.Set(ctx, sess); err != nil {
		util.FailSpan(span, err)
		sink.Error(msgGenericFailure)
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	redirect := pathCatalog
	if account.AdminStatus {
		redirect = pathInventory
	}
	notify.Fanout(sink, s.inbox.For(sess.ID)).Info(fmt.Sprintf(msgWelcome, account.Username))

	s.logger.Info("Session started",
		zap.Int64("account_id", account.ID),
		zap.String("session_id", sess.ID))
	return &LoginResult{Session: sess, Redirect: redirect}, nil
}

// Logout ends the session
func (s *StorefrontService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Clear(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// Register creates a buyer account; the buyer logs in afterwards
func (s *StorefrontService) Register(ctx context.Context, username, password string, sink notify.Sink) (*models.Account, error) {
	ctx, span := util.StartSpan(ctx, "StorefrontService.Register")
	defer span.End()

	created, res := s.accounts.CreateUser(ctx, models.NewUserAccount(username, password))
	if !res.OK() {
		util.FailSpan(span, res.Err)
		switch {
		case errors.Is(res.Err, gateway.ErrWeakPassword):
			sink.Error(msgWeakPassword)
		case errors.Is(res.Err, gateway.ErrDuplicateUsername):
			sink.Error(msgDuplicateUsername)
		default:
			s.logger.Error("Failed to create account", zap.String("username", username), zap.Error(res.Err))
			sink.Error(msgRegisterFailed)
		}
		return nil, res.Err
	}

	sink.Success(msgRegistered)
	return created, nil
}

// ResetPassword sets a new password on the account with the given username
func (s *StorefrontService) ResetPassword(ctx context.Context, username, password string, sink notify.Sink) error {
	ctx, span := util.StartSpan(ctx, "StorefrontService.ResetPassword")
	defer span.End()

	accounts, err := s.accounts.ListAccounts(ctx)
	if err != nil {
		util.FailSpan(span, err)
		sink.Error(msgPasswordFailed)
		return err
	}
	account, ok := lo.Find(accounts, func(a models.Account) bool { return a.Username == username })
	if !ok {
		sink.Error(fmt.Sprintf(msgNoSuchUsername, username))
		return gateway.ErrNotFound
	}

	account.PlainPassword = password
	res := s.accounts.UpdateAccount(ctx, &account)
	switch {
	case res.OK():
		sink.Success(msgPasswordChanged)
		return nil
	case errors.Is(res.Err, gateway.ErrWeakPassword):
		sink.Error(msgWeakPassword)
	case errors.Is(res.Err, gateway.ErrNotFound):
		sink.Error(fmt.Sprintf(msgNoSuchUsername, username))
	default:
		sink.Error(msgPasswordFailed)
	}
	util.FailSpan(span, res.Err)
	return res.Err
}

// GetProfile loads the buyer's account fresh from the backend
func (s *StorefrontService) GetProfile(ctx context.Context, flow *Flow, current mo.Option[session.Session], sink notify.Sink) (*models.Account, error) {
	page := &BuyerPage{}
	if err := runSteps(ctx, flow, page, buyerAccountStep(s.loader, current)); err != nil {
		s.loader.report(sink, pathProfile, err)
		return nil, err
	}
	return page.Account, nil
}

// UpdateProfile changes shipping and payment details and refreshes the session's copy
func (s *StorefrontService) UpdateProfile(ctx context.Context, flow *Flow, current mo.Option[session.Session], update ProfileUpdate, sink notify.Sink) (*models.Account, error) {
	ctx, span := util.StartSpan(ctx, "StorefrontService.UpdateProfile")
	defer span.End()

	page := &BuyerPage{}
	if err := runSteps(ctx, flow, page, buyerAccountStep(s.loader, current)); err != nil {
		s.loader.report(sink, pathProfile, err)
		return nil, err
	}

	account := page.Account
	if msg := update.apply(account); msg != "" {
		sink.Error(msg)
		return nil, ErrInvalidForm
	}

	res := s.accounts.UpdateAccount(ctx, account)
	if !flow.Alive() {
		return nil, ErrFlowAbandoned
	}
	if !res.OK() {
		util.FailSpan(span, res.Err)
		s.logger.Error("Failed to update profile", zap.Int64("account_id", account.ID), zap.Error(res.Err))
		sink.Error(msgProfileFailed)
		return nil, res.Err
	}

	refreshed := page.Session
	refreshed.Account = *account
	refreshed.Account.PlainPassword = ""
	if err := s.sessions.Set(ctx, &refreshed); err != nil {
		s.logger.Warn("Failed to refresh session account", zap.Error(err))
	}
	sink.Success(msgProfileUpdated)
	return account, nil
}

// AddToCart adds one of the duck to the buyer's cart
func (s *StorefrontService) AddToCart(ctx context.Context, flow *Flow, current mo.Option[session.Session], productID int64, sink notify.Sink) (*models.Cart, error) {
	ctx, span := util.StartSpan(ctx, "StorefrontService.AddToCart")
	defer span.End()

	page := &BuyerPage{}
	if err := runSteps(ctx, flow, page, buyerAccountStep(s.loader, current), s.loader.cartStep); err != nil {
		s.loader.report(sink, pathCatalog, err)
		return nil, err
	}

	found, err := s.inventory.GetProduct(ctx, productID)
	if !flow.Alive() {
		return nil, ErrFlowAbandoned
	}
	if err != nil {
		util.FailSpan(span, err)
		sink.Error(fmt.Sprintf(msgDuckAddFailed, productID))
		return nil, err
	}
	if duck, ok := found.Get(); !ok || !duck.InStock() {
		sink.Error(fmt.Sprintf(msgDuckUnavailable, productID))
		return nil, ErrUnavailable
	}

	cart := page.Cart
	res := s.addOne(ctx, cart, productID)
	if !flow.Alive() {
		return nil, ErrFlowAbandoned
	}
	if !res.OK() {
		util.FailSpan(span, res.Err)
		sink.Error(fmt.Sprintf(msgDuckAddFailed, productID))
		return nil, res.Err
	}

	sink.Success(fmt.Sprintf(msgDuckAdded, productID))
	return cart, nil
}

// addOne increments locally, persists, and rolls the increment back if the backend refuses it
func (s *StorefrontService) addOne(ctx context.Context, cart *models.Cart, productID int64) gateway.Result {
	s.carts.AddItem(cart, productID, 1)
	res := s.carts.UpdateCart(ctx, cart)
	if !res.OK() {
		cart.Items[productID]--
		if cart.Items[productID] <= 0 {
			delete(cart.Items, productID)
		}
	}
	return res
}

// DeleteProduct removes the duck from the admin's view first and reconciles with the backend's answer.
// A 404 keeps the removal since the backend does not hold the duck either.
func (s *StorefrontService) DeleteProduct(ctx context.Context, flow *Flow, current mo.Option[session.Session], productID int64, sink notify.Sink) (*AdminPage, gateway.Result, error) {
	ctx, span := util.StartSpan(ctx, "StorefrontService.DeleteProduct")
	defer span.End()

	page, err := s.loader.LoadAdminPage(ctx, flow, current, pathInventory, sink)
	if err != nil {
		return nil, gateway.Result{}, err
	}

	idx := slices.IndexFunc(page.Inventory, func(d models.Duck) bool { return d.ID == productID })
	var removed models.Duck
	if idx >= 0 {
		removed = page.Inventory[idx]
		page.Inventory = slices.Delete(page.Inventory, idx, idx+1)
	}

	res := s.inventory.DeleteProduct(ctx, productID)
	if !flow.Alive() {
		return nil, res, ErrFlowAbandoned
	}

	switch {
	case res.OK():
		sink.Success(fmt.Sprintf(msgDuckDeleted, productID))
	case errors.Is(res.Err, gateway.ErrNotFound):
		sink.Error(fmt.Sprintf(msgDuckDeleteMissing, productID))
	default:
		util.FailSpan(span, res.Err)
		s.logger.Error("Failed to delete duck", zap.Int64("product_id", productID), zap.Error(res.Err))
		if idx >= 0 {
			page.Inventory = slices.Insert(page.Inventory, idx, removed)
		}
		sink.Error(fmt.Sprintf(msgDuckDeleteFailed, productID))
	}
	return page, res, nil
}
