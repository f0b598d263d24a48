package pages

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Keoroanthony/go-storefront/internal/auth"
	"github.com/Keoroanthony/go-storefront/internal/cache"
	"github.com/Keoroanthony/go-storefront/internal/db"
	"github.com/Keoroanthony/go-storefront/internal/models"
	"github.com/Keoroanthony/go-storefront/internal/services"
	"github.com/Keoroanthony/go-storefront/internal/utils"
)

func Home(c *gin.Context) {
	catalog := services.NewCatalogService(db.DB, cache.Default())
	ctx := c.Request.Context()

	products, _, err := catalog.ListProducts(ctx, services.ProductFilter{}, utils.Page{Page: 1, Limit: 8})
	if err != nil {
		renderError(c, err)
		return
	}
	categories, _, err := catalog.ListCategories(ctx, utils.Page{Page: 1, Limit: utils.MaxPageSize})
	if err != nil {
		renderError(c, err)
		return
	}

	page(c, http.StatusOK, "home.html", gin.H{"Title": "Home", "Products": products, "Categories": categories})
}

type registerForm struct {
	Username  string      `form:"username" json:"username" binding:"required,max=150"`
	Email     string      `form:"email" json:"email" binding:"required,email"`
	Name      string      `form:"name" json:"name" binding:"max=255"`
	Role      models.Role `form:"role" json:"role"`
	Phone     string      `form:"phone" json:"phone" binding:"max=20"`
	Password1 string      `form:"password1" json:"password1" binding:"required"`
	Password2 string      `form:"password2" json:"password2" binding:"required"`
}

func RegisterPage(c *gin.Context) {
	page(c, http.StatusOK, "register.html", gin.H{"Title": "Register", "Form": registerForm{}})
}

func RegisterSubmit(c *gin.Context) {
	var form registerForm
	rerender := func(errs map[string]string) {
		page(c, http.StatusBadRequest, "register.html", gin.H{"Title": "Register", "Form": form, "Errors": errs})
	}

	if err := c.ShouldBind(&form); err != nil {
		if errs, ok := formErrors(err); ok {
			rerender(errs)
			return
		}
		renderError(c, err)
		return
	}
	if form.Password1 != form.Password2 {
		rerender(map[string]string{"password2": "The two password fields didn't match."})
		return
	}

	user, err := services.NewUserService(db.DB).Register(c.Request.Context(), services.RegisterInput{
		Username: strings.TrimSpace(form.Username),
		Email:    form.Email,
		Name:     form.Name,
		Password: form.Password1,
		Role:     form.Role,
		Phone:    optional(form.Phone),
	})
	if err != nil {
		if errs, ok := formErrors(err); ok {
			rerender(errs)
			return
		}
		renderError(c, err)
		return
	}

	if err := auth.LogIn(c, user); err != nil {
		renderError(c, err)
		return
	}
	flash(c, "Welcome, "+user.Username+"! Your account has been created.")
	redirect(c, "/")
}

func LoginPage(c *gin.Context) {
	page(c, http.StatusOK, "login.html", gin.H{"Title": "Log in", "Form": services.LoginInput{}, "Next": c.Query("next")})
}

func Login(c *gin.Context) {
	var form services.LoginInput
	next := c.PostForm("next")

	if err := c.ShouldBind(&form); err != nil {
		errs, _ := formErrors(err)
		page(c, http.StatusBadRequest, "login.html", gin.H{"Title": "Log in", "Form": form, "Errors": errs, "Next": next})
		return
	}

	user, err := services.NewUserService(db.DB).Authenticate(c.Request.Context(), form)
	if err != nil {
		page(c, http.StatusUnauthorized, "login.html", gin.H{
			"Title":  "Log in",
			"Form":   form,
			"Errors": map[string]string{"__all__": "Please enter a correct username and password."},
			"Next":   next,
		})
		return
	}

	if err := auth.LogIn(c, user); err != nil {
		renderError(c, err)
		return
	}
	redirect(c, safeNext(next))
}

// Logout accepts GET and POST like the rest of the site's links.
func Logout(c *gin.Context) {
	if err := auth.LogOut(c); err != nil {
		renderError(c, err)
		return
	}
	redirect(c, "/")
}

type profileForm struct {
	Name         string `form:"name" json:"name" binding:"max=255"`
	Email        string `form:"email" json:"email" binding:"required,email"`
	Bio          string `form:"bio" json:"bio"`
	Phone        string `form:"phone" json:"phone" binding:"max=20"`
	ProfileImage string `form:"profile_image" json:"profile_image" binding:"max=255"`
	Password     string `form:"password" json:"password"`
}

func Profile(c *gin.Context) {
	user, err := services.NewUserService(db.DB).GetProfile(c.Request.Context(), auth.CurrentUser(c).ID)
	if err != nil {
		renderError(c, err)
		return
	}
	page(c, http.StatusOK, "profile.html", gin.H{"Title": "Profile", "Profile": user})
}

func UpdateProfile(c *gin.Context) {
	svc := services.NewUserService(db.DB)
	user := auth.CurrentUser(c)

	var form profileForm
	rerender := func(errs map[string]string) {
		profile, err := svc.GetProfile(c.Request.Context(), user.ID)
		if err != nil {
			renderError(c, err)
			return
		}
		page(c, http.StatusBadRequest, "profile.html", gin.H{"Title": "Profile", "Profile": profile, "Errors": errs})
	}

	if err := c.ShouldBind(&form); err != nil {
		if errs, ok := formErrors(err); ok {
			rerender(errs)
			return
		}
		renderError(c, err)
		return
	}

	in := services.ProfileInput{
		Name:         &form.Name,
		Email:        &form.Email,
		Bio:          optional(form.Bio),
		Phone:        optional(form.Phone),
		ProfileImage: optional(form.ProfileImage),
	}
	if form.Password != "" {
		in.Password = &form.Password
	}

	if _, err := svc.UpdateProfile(c.Request.Context(), user, in); err != nil {
		if errs, ok := formErrors(err); ok {
			rerender(errs)
			return
		}
		renderError(c, err)
		return
	}
	flash(c, "Your profile has been updated.")
	redirect(c, "/profile/")
}
