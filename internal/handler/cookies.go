package handler

import (
	"time"

	"github.com/civicreport/civicreport-api/internal/config"
	"github.com/gofiber/fiber/v2"
)

// CookieJar writes and clears the auth cookies.
type CookieJar struct {
	cfg        config.CookieConfig
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewCookieJar(cfg config.CookieConfig, accessTTL, refreshTTL time.Duration) *CookieJar {
	return &CookieJar{
		cfg:        cfg,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

func (j *CookieJar) set(c *fiber.Ctx, name, value string, ttl time.Duration) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     j.cfg.Path,
		Expires:  j.now().Add(ttl),
		Secure:   j.cfg.Secure,
		HTTPOnly: j.cfg.HTTPOnly,
		SameSite: j.cfg.SameSite,
	})
}

func (j *CookieJar) SetAccess(c *fiber.Ctx, token string) {
	j.set(c, j.cfg.AccessName, token, j.accessTTL)
}

func (j *CookieJar) SetRefresh(c *fiber.Ctx, token string) {
	j.set(c, j.cfg.RefreshName, token, j.refreshTTL)
}

func (j *CookieJar) Access(c *fiber.Ctx) string {
	return c.Cookies(j.cfg.AccessName)
}

func (j *CookieJar) Refresh(c *fiber.Ctx) string {
	return c.Cookies(j.cfg.RefreshName)
}

func (j *CookieJar) Clear(c *fiber.Ctx) {
	for _, name := range []string{j.cfg.AccessName, j.cfg.RefreshName} {
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    "",
			Path:     j.cfg.Path,
			Expires:  time.Unix(0, 0),
			Secure:   j.cfg.Secure,
			HTTPOnly: j.cfg.HTTPOnly,
			SameSite: j.cfg.SameSite,
		})
	}
}
