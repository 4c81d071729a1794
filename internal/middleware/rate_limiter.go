package middleware

import (
	"net/http"
	"sync"
	"time"

	"servitec/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ── Fixed-window limiter per client IP ───────────────────────────────────────

type ventana struct {
	count int
	fin   time.Time
}

type limitador struct {
	nombre string
	limit  int
	window time.Duration

	mu    sync.Mutex
	porIP map[string]*ventana
}

var (
	limitadores   []*limitador
	limitadoresMu sync.Mutex
	purgaOnce     sync.Once
)

func nuevoLimitador(nombre string, limit int, window time.Duration) *limitador {
	l := &limitador{nombre: nombre, limit: limit, window: window, porIP: make(map[string]*ventana)}
	limitadoresMu.Lock()
	limitadores = append(limitadores, l)
	limitadoresMu.Unlock()
	purgaOnce.Do(func() { go purgarVencidas() })
	return l
}

// permitir registra un intento de ip y reporta si sigue dentro del límite
// junto con el fin de la ventana vigente.
func (l *limitador) permitir(ip string, now time.Time) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	v, ok := l.porIP[ip]
	if !ok || now.After(v.fin) {
		v = &ventana{fin: now.Add(l.window)}
		l.porIP[ip] = v
	}
	v.count++
	return v.count <= l.limit, v.fin
}

func (l *limitador) purgar(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for ip, v := range l.porIP {
		if now.After(v.fin) {
			delete(l.porIP, ip)
			n++
		}
	}
	return n
}

func (l *limitador) middleware(msg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, fin := l.permitir(c.ClientIP(), time.Now())
		if !ok {
			c.Header("Retry-After", fin.UTC().Format(http.TimeFormat))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(msg))
			return
		}
		c.Next()
	}
}

// LoginRateLimiter limits login attempts to 20 per minute per IP.
func LoginRateLimiter() gin.HandlerFunc {
	return nuevoLimitador("login", 20, time.Minute).
		middleware("Demasiados intentos de login. Intente en 1 minuto.")
}

// RateLimiter returns a general-purpose limiter of limit requests per window
// per IP.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	return nuevoLimitador("api", limit, window).
		middleware("Demasiadas solicitudes. Intente nuevamente en un momento.")
}

// TrackerRateLimiter protects the public order lookup against enumeration of
// order codes.
func TrackerRateLimiter() gin.HandlerFunc {
	return nuevoLimitador("tracker", 30, time.Minute).
		middleware("Demasiadas consultas. Intente nuevamente en un momento.")
}

// ── Purge goroutine ───────────────────────────────────────────────────────────
// Drops expired windows so IPs that never return do not accumulate.

const purgeInterval = 5 * time.Minute

func purgarVencidas() {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for now := range ticker.C {
		limitadoresMu.Lock()
		todos := append([]*limitador(nil), limitadores...)
		limitadoresMu.Unlock()

		for _, l := range todos {
			if n := l.purgar(now); n > 0 {
				log.Debug().Str("limitador", l.nombre).Int("purgadas", n).Msg("rate limiter purged")
			}
		}
	}
}
