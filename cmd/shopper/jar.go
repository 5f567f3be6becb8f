package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"

	"labelshop/internal/clientstore"
)

const cookiesKey = "cookies"

type storedCookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Path     string    `json:"path,omitempty"`
	Expires  time.Time `json:"expires,omitempty"`
	Secure   bool      `json:"secure,omitempty"`
	HttpOnly bool      `json:"httpOnly,omitempty"`
}

// persistentJar is a cookie jar for a single API origin whose cookies survive
// restarts of the CLI through the client store.
type persistentJar struct {
	mu      sync.Mutex
	jar     *cookiejar.Jar
	store   clientstore.Storage
	origin  *url.URL
	cookies map[string]storedCookie
	logger  *zap.Logger
	now     func() time.Time
}

func newPersistentJar(ctx context.Context, store clientstore.Storage, origin *url.URL, logger *zap.Logger) (*persistentJar, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	j := &persistentJar{
		jar:     jar,
		store:   store,
		origin:  origin,
		cookies: map[string]storedCookie{},
		logger:  logger,
		now:     time.Now,
	}

	raw, err := store.Get(ctx, cookiesKey)
	if errors.Is(err, clientstore.ErrNotFound) {
		return j, nil
	}
	if err != nil {
		return nil, err
	}
	var saved []storedCookie
	if err := json.Unmarshal(raw, &saved); err != nil {
		logger.Warn("discarding unreadable cookies", zap.Error(err))
		return j, nil
	}
	restored := make([]*http.Cookie, 0, len(saved))
	for _, c := range saved {
		if !c.Expires.IsZero() && !c.Expires.After(j.now()) {
			continue
		}
		j.cookies[cookieID(c.Name, c.Path)] = c
		restored = append(restored, &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Expires:  c.Expires,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
		})
	}
	jar.SetCookies(origin, restored)
	return j, nil
}

func (j *persistentJar) Cookies(u *url.URL) []*http.Cookie {
	return j.jar.Cookies(u)
}

func (j *persistentJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.jar.SetCookies(u, cookies)
	if u.Host != j.origin.Host {
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	for _, c := range cookies {
		id := cookieID(c.Name, c.Path)
		expires := c.Expires
		if c.MaxAge > 0 {
			expires = j.now().Add(time.Duration(c.MaxAge) * time.Second)
		}
		if c.MaxAge < 0 || (!expires.IsZero() && !expires.After(j.now())) {
			delete(j.cookies, id)
			continue
		}
		j.cookies[id] = storedCookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Expires:  expires,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
		}
	}
	j.saveLocked()
}

func (j *persistentJar) saveLocked() {
	list := make([]storedCookie, 0, len(j.cookies))
	for _, c := range j.cookies {
		list = append(list, c)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var err error
	if len(list) == 0 {
		err = j.store.Delete(ctx, cookiesKey)
	} else {
		var raw []byte
		raw, err = json.Marshal(list)
		if err == nil {
			err = j.store.Set(ctx, cookiesKey, raw)
		}
	}
	if err != nil {
		j.logger.Warn("persist cookies", zap.Error(err))
	}
}

func cookieID(name, path string) string {
	return name + "|" + path
}
