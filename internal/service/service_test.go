package service_test

import (
	"booknet/internal/domain"
	"booknet/internal/events"
	"booknet/internal/repository"
	"booknet/internal/service"
	"booknet/internal/testutil"
	"booknet/internal/upload"
	"booknet/internal/utils"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type sentMail struct {
	kind  string
	email string
	link  string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMail
}

func (f *fakeNotifier) record(kind string, user *domain.User, link string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMail{kind: kind, email: user.Email, link: link})
}

func (f *fakeNotifier) Welcome(user *domain.User)                  { f.record("welcome", user, "") }
func (f *fakeNotifier) PasswordResetLink(u *domain.User, l string) { f.record("reset", u, l) }
func (f *fakeNotifier) PasswordChanged(user *domain.User)          { f.record("changed", user, "") }

func (f *fakeNotifier) last() sentMail {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return sentMail{}
	}
	return f.sent[len(f.sent)-1]
}

type env struct {
	db       *gorm.DB
	mr       *miniredis.Miniredis
	users    repository.UserRepository
	carts    repository.CartRepository
	guests   repository.GuestCartStore
	tokens   *utils.TokenService
	notifier *fakeNotifier
	cart     *service.CartService
	auth     *service.AuthService
	clock    *time.Time
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gdb := testutil.NewTestDB(t)
	rdb, mr := testutil.NewTestRedis(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	e := &env{
		db:       gdb,
		mr:       mr,
		users:    repository.NewUserRepository(gdb),
		carts:    repository.NewCartRepository(gdb),
		guests:   repository.NewGuestCartStore(rdb, repository.GuestCartTTL),
		tokens:   utils.NewTokenService("test-secret"),
		notifier: &fakeNotifier{},
		clock:    &now,
	}
	e.cart = service.NewCartService(e.carts, e.guests, events.NopPublisher{})
	e.auth = service.NewAuthService(e.users, e.cart, e.tokens, e.notifier, events.NopPublisher{}, "http://localhost:5173/").
		WithClock(func() time.Time { return *e.clock })
	return e
}

func (e *env) register(t *testing.T, email, username, password, cartID string) *service.AuthResult {
	t.Helper()
	res, err := e.auth.Register(context.Background(), service.RegisterInput{
		FirstName: " Ab ",
		LastName:  "One",
		Username:  username,
		Email:     email,
		Password:  password,
	}, cartID)
	require.NoError(t, err)
	return res
}

func (e *env) guestCart(t *testing.T, id string, lines ...domain.CartLine) {
	t.Helper()
	cart := domain.NewGuestCart(id)
	for _, l := range lines {
		require.NoError(t, cart.AddItem(l.ProductID, l.Quantity))
	}
	require.NoError(t, e.guests.Save(context.Background(), cart))
}

func TestRegisterCreatesCustomerAndMergesGuestCart(t *testing.T) {
	e := newEnv(t)
	e.guestCart(t, "cart-1", domain.CartLine{ProductID: "book-1", Quantity: 2})

	res := e.register(t, " AB1@X.com ", "ab1", "Abcdef1!", "cart-1")

	assert.Equal(t, "ab1@x.com", res.User.Email)
	assert.Equal(t, "Ab", res.User.FirstName)
	assert.Equal(t, domain.RoleCustomer, res.User.Role)
	assert.NotEqual(t, "Abcdef1!", res.User.PasswordHash)
	assert.True(t, res.CartMerged)
	assert.Empty(t, res.Token, "registration does not log in")
	assert.Equal(t, sentMail{kind: "welcome", email: "ab1@x.com"}, e.notifier.last())

	cart, err := e.carts.GetByUserID(context.Background(), res.User.ID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.False(t, e.mr.Exists("cart:guest:cart-1"))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	e := newEnv(t)
	e.register(t, "ab1@x.com", "ab1", "Abcdef1!", "")

	_, err := e.auth.Register(context.Background(), service.RegisterInput{
		FirstName: "Ab", LastName: "Two", Username: "ab2", Email: "AB1@x.com", Password: "Abcdef1!",
	}, "")
	var dup *domain.DuplicateKeyError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "email", dup.Field)
}

func TestLoginOutcomes(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	user := e.register(t, "ab1@x.com", "ab1", "Abcdef1!", "").User

	_, err := e.auth.Login(ctx, "nobody", "Abcdef1!", "")
	assert.ErrorIs(t, err, domain.ErrNotRegistered)

	_, err = e.auth.Login(ctx, "ab1", "wrong", "")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	for _, identifier := range []string{"ab1", "AB1@x.com"} {
		res, err := e.auth.Login(ctx, identifier, "Abcdef1!", "")
		require.NoError(t, err, identifier)
		claims, err := e.tokens.Verify(res.Token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, claims.UserID)
		assert.False(t, res.CartMerged)
	}
}

func TestLoginMergesGuestCartSummingQuantities(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	user := e.register(t, "ab1@x.com", "ab1", "Abcdef1!", "").User
	_, err := e.carts.AddItem(ctx, user.ID, "book-1", 2)
	require.NoError(t, err)
	e.guestCart(t, "cart-9",
		domain.CartLine{ProductID: "book-1", Quantity: 3},
		domain.CartLine{ProductID: "book-2", Quantity: 1},
	)

	res, err := e.auth.Login(ctx, "ab1", "Abcdef1!", "cart-9")
	require.NoError(t, err)
	assert.True(t, res.CartMerged)

	view, err := e.cart.GetCart(ctx, user.ID, "")
	require.NoError(t, err)
	got := map[string]int{}
	for _, l := range view.Items {
		got[l.ProductID] = l.Quantity
	}
	assert.Equal(t, map[string]int{"book-1": 5, "book-2": 1}, got)

	// A second login finds nothing left to merge
	res, err = e.auth.Login(ctx, "ab1", "Abcdef1!", "cart-9")
	require.NoError(t, err)
	view, err = e.cart.GetCart(ctx, user.ID, "")
	require.NoError(t, err)
	assert.Len(t, view.Items, 2)
	assert.True(t, res.CartMerged)
}

func TestForgotPasswordIsSilentForUnknownEmail(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.auth.ForgotPassword(context.Background(), "ghost@x.com"))
	assert.Equal(t, sentMail{}, e.notifier.last())
}

func TestPasswordResetIsSingleUse(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.register(t, "ab1@x.com", "ab1", "Abcdef1!", "")

	require.NoError(t, e.auth.ForgotPassword(ctx, "ab1@x.com"))
	mail := e.notifier.last()
	require.Equal(t, "reset", mail.kind)
	require.True(t, strings.HasPrefix(mail.link, "http://localhost:5173/reset-password/"), mail.link)
	token := strings.TrimPrefix(mail.link, "http://localhost:5173/reset-password/")
	assert.Len(t, token, 64)

	require.NoError(t, e.auth.ResetPassword(ctx, token, "Newpass1!"))
	assert.Equal(t, "changed", e.notifier.last().kind)

	err := e.auth.ResetPassword(ctx, token, "Other1!x")
	assert.ErrorIs(t, err, domain.ErrInvalidOrExpiredReset)

	_, err = e.auth.Login(ctx, "ab1", "Abcdef1!", "")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = e.auth.Login(ctx, "ab1", "Newpass1!", "")
	assert.NoError(t, err)
}

func TestPasswordResetExpiresAfterOneHour(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.register(t, "ab1@x.com", "ab1", "Abcdef1!", "")
	require.NoError(t, e.auth.ForgotPassword(ctx, "ab1@x.com"))
	token := e.notifier.last().link[strings.LastIndex(e.notifier.last().link, "/")+1:]

	*e.clock = e.clock.Add(61 * time.Minute)
	err := e.auth.ResetPassword(ctx, token, "Newpass1!")
	assert.ErrorIs(t, err, domain.ErrInvalidOrExpiredReset)
}

func TestSweeperPurgesExpiredTokens(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	user := e.register(t, "ab1@x.com", "ab1", "Abcdef1!", "").User
	require.NoError(t, e.users.SetResetToken(ctx, user.ID, "stale", time.Now().UTC().Add(-time.Minute)))

	sweeper := service.NewResetTokenSweeper(e.users, time.Hour)
	assert.EqualValues(t, 1, sweeper.SweepOnce(ctx))
	assert.EqualValues(t, 0, sweeper.SweepOnce(ctx))
}

type failingCartRepo struct {
	mock.Mock
	repository.CartRepository
}

func (m *failingCartRepo) MergeItems(ctx context.Context, userID string, lines []domain.CartLine) (*domain.Cart, error) {
	args := m.Called(ctx, userID, lines)
	return nil, args.Error(0)
}

func TestMergeCartsRestoresGuestCartOnFailure(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.guestCart(t, "cart-7", domain.CartLine{ProductID: "book-1", Quantity: 4})

	repo := &failingCartRepo{}
	repo.On("MergeItems", mock.Anything, "user-1", mock.Anything).Return(errors.New("db down"))
	carts := service.NewCartService(repo, e.guests, events.NopPublisher{})

	err := carts.MergeCarts(ctx, "user-1", "cart-7")
	require.Error(t, err)
	repo.AssertExpectations(t)

	restored, err := e.guests.Get(ctx, "cart-7")
	require.NoError(t, err)
	assert.Equal(t, []domain.CartLine{{ProductID: "book-1", Quantity: 4}}, restored.Items)
}

func TestMergeCartsRestoreKeepsLinesAddedMeanwhile(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.guestCart(t, "cart-8", domain.CartLine{ProductID: "book-1", Quantity: 2})

	repo := &failingCartRepo{}
	repo.On("MergeItems", mock.Anything, "user-1", mock.Anything).
		Run(func(mock.Arguments) {
			_, err := e.cart.AddItem(ctx, "", "cart-8", "book-2", 1) // Guest keeps shopping during the merge
			require.NoError(t, err)
		}).
		Return(errors.New("db down"))
	carts := service.NewCartService(repo, e.guests, events.NopPublisher{})

	require.Error(t, carts.MergeCarts(ctx, "user-1", "cart-8"))

	restored, err := e.guests.Get(ctx, "cart-8")
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.CartLine{
		{ProductID: "book-1", Quantity: 2},
		{ProductID: "book-2", Quantity: 1},
	}, restored.Items)
}

func TestGuestCartConcurrentAddsAreNotLost(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	const adds = 10
	var wg sync.WaitGroup
	errs := make(chan error, adds)
	for i := 0; i < adds; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.cart.AddItem(ctx, "", "cart-9", "book-1", 1)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	view, err := e.cart.GetCart(ctx, "", "cart-9")
	require.NoError(t, err)
	assert.Equal(t, []domain.CartLine{{ProductID: "book-1", Quantity: adds}}, view.Items)
}

func TestGuestCartAddItem(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	_, err := e.cart.AddItem(ctx, "", "cart-3", "book-1", 1)
	require.NoError(t, err)
	view, err := e.cart.AddItem(ctx, "", "cart-3", "book-1", 2)
	require.NoError(t, err)
	assert.Equal(t, "guest", view.Owner)
	assert.Equal(t, []domain.CartLine{{ProductID: "book-1", Quantity: 3}}, view.Items)

	_, err = e.cart.AddItem(ctx, "", "cart-3", "book-1", 0)
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestProfileUpsertPermissions(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	store, err := upload.NewDiskStorage(t.TempDir())
	require.NoError(t, err)
	profiles := service.NewProfileService(e.users, store)

	owner := e.register(t, "ab1@x.com", "ab1", "Abcdef1!", "").User
	other := e.register(t, "ab2@x.com", "ab2", "Abcdef1!", "").User
	ownerID := domain.Identity{ID: owner.ID, Role: domain.RoleCustomer}
	otherID := domain.Identity{ID: other.ID, Role: domain.RoleCustomer}
	admin := domain.Identity{ID: "admin", Role: domain.RoleAdmin}
	mobile := "0711"

	_, _, err = profiles.Upsert(ctx, otherID, owner.ID, domain.ProfileFields{Mobile: &mobile})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	p, created, err := profiles.Upsert(ctx, ownerID, owner.ID, domain.ProfileFields{Mobile: &mobile})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "0711", p.Mobile)

	gender := "female"
	p, created, err = profiles.Upsert(ctx, admin, owner.ID, domain.ProfileFields{Gender: &gender})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "0711", p.Mobile, "unset fields are kept")
	assert.Equal(t, "female", p.Gender)

	_, _, err = profiles.Upsert(ctx, admin, "missing", domain.ProfileFields{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProfileUpsertDeletesReplacedPicture(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	store, err := upload.NewDiskStorage(t.TempDir())
	require.NoError(t, err)
	profiles := service.NewProfileService(e.users, store)
	owner := e.register(t, "ab1@x.com", "ab1", "Abcdef1!", "").User
	actor := domain.Identity{ID: owner.ID, Role: domain.RoleCustomer}

	first, err := store.Save(ctx, "profiles", "a.png", strings.NewReader("a"), 1, "image/png")
	require.NoError(t, err)
	_, _, err = profiles.Upsert(ctx, actor, owner.ID, domain.ProfileFields{Image: &first})
	require.NoError(t, err)

	second, err := store.Save(ctx, "profiles", "b.png", strings.NewReader("b"), 1, "image/png")
	require.NoError(t, err)
	p, _, err := profiles.Upsert(ctx, actor, owner.ID, domain.ProfileFields{Image: &second})
	require.NoError(t, err)
	assert.Equal(t, second, p.Image)

	deleted, err := store.Delete(ctx, "profiles", "a.png")
	require.NoError(t, err)
	assert.False(t, deleted, "previous picture already removed")
}
