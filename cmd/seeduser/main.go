// Crea o actualiza un usuario inicial.
// Uso: go run ./cmd/seeduser -username admin -password 'clave-segura' -rol admin
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"servitec/internal/config"
	"servitec/internal/infra"
	"servitec/internal/model"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm/clause"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	username := flag.String("username", "admin", "nombre de usuario")
	password := flag.String("password", "", "contraseña (mínimo 8 caracteres)")
	nombre := flag.String("nombre", "Administrador", "nombre visible; para técnicos debe coincidir con el de las órdenes")
	rol := flag.String("rol", model.RolAdmin, "tecnico | coordinador | admin")
	flag.Parse()

	if len(*password) < 8 {
		log.Fatal().Msg("seeduser: -password es obligatorio y debe tener al menos 8 caracteres")
	}
	if model.NivelRol(*rol) == 0 {
		log.Fatal().Str("rol", *rol).Msg("seeduser: rol desconocido")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("seeduser: config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("seeduser: db connect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), 12)
	if err != nil {
		log.Fatal().Err(err).Msg("seeduser: bcrypt")
	}

	u := model.Usuario{
		Username:     *username,
		Nombre:       *nombre,
		PasswordHash: string(hash),
		Rol:          *rol,
		Activo:       true,
	}
	err = db.WithContext(context.Background()).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}},
		DoUpdates: clause.AssignmentColumns([]string{"password_hash", "nombre", "rol", "activo", "updated_at"}),
	}).Create(&u).Error
	if err != nil {
		log.Fatal().Err(err).Msg("seeduser: upsert")
	}
	log.Info().Str("username", *username).Str("rol", *rol).Msg("usuario creado/actualizado")
}
