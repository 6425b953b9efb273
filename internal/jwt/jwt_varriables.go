package jwt

import (
	"care-chat-backend/internal/env"
	"time"

	"github.com/go-redis/redis/v8"
)

var (
	PATIENT_SECRET string
	DOCTOR_SECRET  string
	RedisClient    *redis.Client
)

const RefreshTokenTTL = 24 * 30 * time.Hour

const (
	RolePatient Role = iota
	RoleDoctor
)

var RoleSecrets = map[Role]string{}

var RoleNames = map[Role]string{
	RolePatient: "patient",
	RoleDoctor:  "doctor",
}

func RoleFromName(name string) (Role, bool) {
	for role, n := range RoleNames {
		if n == name {
			return role, true
		}
	}
	return 0, false
}

func init() {
	PATIENT_SECRET = env.Get(env.PatientSecretKey)
	DOCTOR_SECRET = env.Get(env.DoctorSecretKey)

	RoleSecrets = map[Role]string{
		RolePatient: PATIENT_SECRET,
		RoleDoctor:  DOCTOR_SECRET,
	}

	RedisClient = redis.NewClient(&redis.Options{
		Addr:     env.Get(env.AuthRedisURL),
		Password: env.Get(env.AuthRedisPass),
		DB:       0,
	})
}
