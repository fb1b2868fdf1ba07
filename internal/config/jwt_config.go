package config

type JwtConfig struct {
	Secret string
	Issuer string
}

func NewJwtConfig() *JwtConfig {
	return &JwtConfig{
		Secret: getEnv("JWT_SECRET", ""),
		Issuer: getEnv("JWT_ISSUER", ""),
	}
}
