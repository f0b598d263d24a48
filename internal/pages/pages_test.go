package pages_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Keoroanthony/go-storefront/internal/auth"
	"github.com/Keoroanthony/go-storefront/internal/db/dbtest"
	"github.com/Keoroanthony/go-storefront/internal/models"
	"github.com/Keoroanthony/go-storefront/internal/pages"
)

const sessionSecret = "test-secret-key"

func setupPagesRouter(t *testing.T) (*gin.Engine, *gorm.DB, dbtest.Fixture) {
	gin.SetMode(gin.TestMode)

	testDB := dbtest.Open(t)
	fx := dbtest.Seed(t, testDB)
	require.NoError(t, auth.Init(context.Background(), auth.Settings{JWTSecret: "test-jwt", JWTTTL: time.Hour}))

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(sessions.Sessions(auth.SessionName, cookie.NewStore([]byte(sessionSecret))))
	require.NoError(t, pages.Register(r))

	return r, testDB, fx
}

func sessionCookie(user *models.User) string {
	tempW := httptest.NewRecorder()
	tempC, _ := gin.CreateTestContext(tempW)
	tempC.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	sessions.Sessions(auth.SessionName, cookie.NewStore([]byte(sessionSecret)))(tempC)

	session := sessions.Default(tempC)
	session.Set(auth.SessionUserKey, user.ID)
	_ = session.Save()
	return tempW.Header().Get("Set-Cookie")
}

func get(router *gin.Engine, path string, user *models.User) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if user != nil {
		req.Header.Set("Cookie", sessionCookie(user))
	}
	router.ServeHTTP(recorder, req)
	return recorder
}

func post(router *gin.Engine, path string, form url.Values, user *models.User) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if user != nil {
		req.Header.Set("Cookie", sessionCookie(user))
	}
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestPublicPages(t *testing.T) {
	router, _, fx := setupPagesRouter(t)

	recorder := get(router, "/", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Keyboard")
	assert.Contains(t, recorder.Body.String(), "/login/")

	recorder = get(router, "/categories/computers/", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Average price: KES 10.00")

	recorder = get(router, "/products/"+itoa(fx.Product.ID)+"/", &fx.User)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Write a review")

	recorder = get(router, "/products/9999/", nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)

	recorder = get(router, "/categories/missing/", nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func TestLoginFlow(t *testing.T) {
	router, _, _ := setupPagesRouter(t)

	recorder := get(router, "/orders/", nil)
	assert.Equal(t, http.StatusFound, recorder.Code)
	assert.Equal(t, "/login/?next=%2Forders%2F", recorder.Header().Get("Location"))

	recorder = get(router, "/login/?next=/orders/", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `value="/orders/"`)

	recorder = post(router, "/login/", url.Values{"username": {"alice"}, "password": {"wrong"}, "next": {"/orders/"}}, nil)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Please enter a correct username and password.")

	recorder = post(router, "/login/", url.Values{"username": {"alice"}, "password": {dbtest.Password}, "next": {"/orders/"}}, nil)
	assert.Equal(t, http.StatusSeeOther, recorder.Code)
	assert.Equal(t, "/orders/", recorder.Header().Get("Location"))
	assert.NotEmpty(t, recorder.Header().Get("Set-Cookie"))

	for _, next := range []string{"//evil.example.com/", `/\evil.example.com`, `/\/evil.example.com`, "https://evil.example.com/"} {
		recorder = post(router, "/login/", url.Values{"username": {"alice"}, "password": {dbtest.Password}, "next": {next}}, nil)
		assert.Equal(t, http.StatusSeeOther, recorder.Code)
		assert.Equal(t, "/", recorder.Header().Get("Location"), next)
	}
}

func TestRegisterPage(t *testing.T) {
	router, testDB, _ := setupPagesRouter(t)

	form := url.Values{
		"username":  {"carol"},
		"email":     {"carol@example.com"},
		"password1": {"blue-lagoon-77"},
		"password2": {"blue-lagoon-78"},
	}
	recorder := post(router, "/register/", form, nil)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "match.")

	form.Set("password2", "blue-lagoon-77")
	recorder = post(router, "/register/", form, nil)
	assert.Equal(t, http.StatusSeeOther, recorder.Code)

	var user models.User
	require.NoError(t, testDB.Where("username = ?", "carol").First(&user).Error)
	assert.Equal(t, models.RoleCustomer, user.Role)
}

func TestOrderPages(t *testing.T) {
	router, testDB, fx := setupPagesRouter(t)

	recorder := get(router, "/orders/new/", &fx.User)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Keyboard")

	t.Run("invalid quantity re-renders the form", func(t *testing.T) {
		recorder := post(router, "/orders/new/", url.Values{
			"address_id": {itoa(fx.Address.ID)},
			"product_id": {itoa(fx.Product.ID)},
			"quantity":   {"0"},
		}, &fx.User)
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "must be a positive number")

		var n int64
		require.NoError(t, testDB.Model(&models.Order{}).Count(&n).Error)
		assert.Zero(t, n)
	})

	recorder = post(router, "/orders/new/", url.Values{
		"address_id": {itoa(fx.Address.ID)},
		"product_id": {itoa(fx.Product.ID), ""},
		"quantity":   {"2", "1"},
	}, &fx.User)
	require.Equal(t, http.StatusSeeOther, recorder.Code, recorder.Body.String())

	var order models.Order
	require.NoError(t, testDB.Preload("Items").Order("id DESC").First(&order).Error)
	assert.Equal(t, "/orders/"+itoa(order.ID)+"/", recorder.Header().Get("Location"))
	assert.Equal(t, "20.00", order.TotalAmount.StringFixed(2))
	assert.Len(t, order.Items, 1)

	detail := "/orders/" + itoa(order.ID) + "/"

	recorder = get(router, detail, &fx.User)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "KES 20.00")
	assert.Contains(t, recorder.Body.String(), "Proceed to payment")

	recorder = get(router, detail, &fx.Other)
	assert.Equal(t, http.StatusForbidden, recorder.Code)

	t.Run("payment before checkout is a no-op", func(t *testing.T) {
		recorder := post(router, "/payments/create/"+itoa(order.ID)+"/", nil, &fx.User)
		assert.Equal(t, http.StatusSeeOther, recorder.Code)
		assert.Equal(t, detail, recorder.Header().Get("Location"))

		var n int64
		require.NoError(t, testDB.Model(&models.Payment{}).Count(&n).Error)
		assert.Zero(t, n)
	})

	recorder = post(router, detail+"checkout/", nil, &fx.User)
	require.Equal(t, http.StatusSeeOther, recorder.Code)

	t.Run("paying twice records one payment", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			recorder := post(router, "/payments/create/"+itoa(order.ID)+"/", nil, &fx.User)
			assert.Equal(t, http.StatusSeeOther, recorder.Code)
			assert.Equal(t, detail, recorder.Header().Get("Location"))
		}

		var payments []models.Payment
		require.NoError(t, testDB.Where("order_id = ?", order.ID).Find(&payments).Error)
		require.Len(t, payments, 1)
		assert.Equal(t, models.PaymentCompleted, payments[0].Status)

		var stored models.Order
		require.NoError(t, testDB.First(&stored, order.ID).Error)
		assert.Equal(t, models.StatusProcessing, stored.Status)
	})

	t.Run("paid orders cannot be cancelled", func(t *testing.T) {
		recorder := post(router, detail+"cancel/", nil, &fx.User)
		assert.Equal(t, http.StatusConflict, recorder.Code)
	})

	t.Run("delete", func(t *testing.T) {
		recorder := get(router, detail+"delete/", &fx.User)
		require.Equal(t, http.StatusOK, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "Permanently delete order")

		recorder = post(router, detail+"delete/", nil, &fx.User)
		assert.Equal(t, http.StatusSeeOther, recorder.Code)
		assert.Equal(t, "/orders/", recorder.Header().Get("Location"))
	})
}

func TestCatalogPages(t *testing.T) {
	router, testDB, fx := setupPagesRouter(t)

	recorder := post(router, "/categories/new/", url.Values{"name": {"Audio Gear"}, "parent_id": {""}}, &fx.User)
	require.Equal(t, http.StatusSeeOther, recorder.Code, recorder.Body.String())
	assert.Equal(t, "/categories/audio-gear/", recorder.Header().Get("Location"))

	recorder = post(router, "/categories/new/", url.Values{"name": {"Computers"}}, &fx.User)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "a category with this slug already exists")

	recorder = post(router, "/products/new/", url.Values{
		"name": {"Speaker"}, "price": {"abc"}, "stock": {"1"}, "category_id": {itoa(fx.Category.ID)},
	}, &fx.User)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Enter a number.")

	recorder = post(router, "/products/new/", url.Values{
		"name": {"Speaker"}, "price": {"15.50"}, "stock": {"0"}, "category_id": {itoa(fx.Category.ID)},
	}, &fx.User)
	require.Equal(t, http.StatusSeeOther, recorder.Code, recorder.Body.String())

	var speaker models.Product
	require.NoError(t, testDB.Where("name = ?", "Speaker").First(&speaker).Error)
	assert.False(t, speaker.IsAvailable)
	assert.Equal(t, "/products/"+itoa(speaker.ID)+"/", recorder.Header().Get("Location"))

	recorder = get(router, "/products/?available=true", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Keyboard")
	assert.NotContains(t, recorder.Body.String(), "Speaker")

	recorder = post(router, "/products/"+itoa(speaker.ID)+"/delete/", nil, &fx.User)
	assert.Equal(t, http.StatusSeeOther, recorder.Code)
	assert.Equal(t, "/products/", recorder.Header().Get("Location"))
}

func TestReviewAndAddressPages(t *testing.T) {
	router, testDB, fx := setupPagesRouter(t)

	recorder := get(router, "/reviews/new/?product_id="+itoa(fx.Product.ID), &fx.User)
	require.Equal(t, http.StatusOK, recorder.Code)

	form := url.Values{"product_id": {itoa(fx.Product.ID)}, "rating": {"4"}, "comment": {"Clicky"}}
	recorder = post(router, "/reviews/new/", form, &fx.User)
	require.Equal(t, http.StatusSeeOther, recorder.Code, recorder.Body.String())

	recorder = post(router, "/reviews/new/", form, &fx.User)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "You have already submitted a review for this product.")

	recorder = get(router, "/reviews/", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Clicky")

	recorder = post(router, "/profile/addresses/add/", url.Values{
		"street": {"5 Harbour Rd"}, "city": {"Kisumu"}, "state": {"Kisumu"}, "country": {"Kenya"},
		"postal_code": {"40100"}, "is_default": {"true"},
	}, &fx.User)
	require.Equal(t, http.StatusSeeOther, recorder.Code, recorder.Body.String())

	var defaults int64
	require.NoError(t, testDB.Model(&models.Address{}).Where("user_id = ? AND is_default = ?", fx.User.ID, true).Count(&defaults).Error)
	assert.Equal(t, int64(1), defaults)

	recorder = post(router, "/profile/addresses/add/", url.Values{"street": {"nowhere"}}, &fx.User)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "This field is required.")

	recorder = get(router, "/profile/", &fx.User)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Kisumu")
}
