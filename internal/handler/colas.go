package handler

import (
	"net/http"
	"strconv"

	"servitec/internal/apierror"
	"servitec/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type estadoCola struct {
	Cola       string            `json:"cola"`
	Pendientes int64             `json:"pendientes"`
	Fallidos   int64             `json:"fallidos"`
	Ultimos    []worker.DLQEntry `json:"ultimos"`
}

// Colas muestra los jobs pendientes de documentos y correo y los últimos
// que terminaron en la DLQ. ?n= limita cuántos fallidos se listan (10 por
// defecto, máximo 100).
func Colas(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := strconv.ParseInt(c.DefaultQuery("n", "10"), 10, 64)
		if err != nil || n < 1 || n > 100 {
			c.JSON(http.StatusBadRequest, apierror.New("n debe estar entre 1 y 100"))
			return
		}

		ctx := c.Request.Context()
		out := make([]estadoCola, 0, 2)
		for _, q := range []string{worker.QueueDocumento, worker.QueueEmail} {
			pendientes, err := rdb.LLen(ctx, q).Result()
			if err != nil {
				log.Error().Err(err).Str("cola", q).Msg("colas: LLEN")
				c.JSON(http.StatusServiceUnavailable, apierror.New("Redis no disponible"))
				return
			}
			fallidos, err := worker.DLQLength(ctx, rdb, q)
			if err != nil {
				c.JSON(http.StatusServiceUnavailable, apierror.New("Redis no disponible"))
				return
			}
			ultimos, err := worker.DLQPeek(ctx, rdb, q, n)
			if err != nil {
				c.JSON(http.StatusServiceUnavailable, apierror.New("Redis no disponible"))
				return
			}
			out = append(out, estadoCola{Cola: q, Pendientes: pendientes, Fallidos: fallidos, Ultimos: ultimos})
		}
		c.JSON(http.StatusOK, out)
	}
}
