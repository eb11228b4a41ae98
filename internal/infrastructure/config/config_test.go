package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// baseEnv Loadが通る最小限の環境変数。外部の値に左右されないよう一部は空にする
var baseEnv = map[string]string{
	"DB_HOST":           "localhost",
	"DB_NAME":           "test_db",
	"JWT_SECRET":        "test-secret",
	"ENVIRONMENT":       "",
	"LOG_LEVEL":         "",
	"ADMIN_API_ENABLED": "",
}

// setEnv baseEnvにoverridesを重ねて設定する。空文字は未設定扱い
func setEnv(t *testing.T, overrides map[string]string) {
	t.Helper()
	for k, v := range baseEnv {
		t.Setenv(k, v)
	}
	for k, v := range overrides {
		t.Setenv(k, v)
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		wantError   string
		checkConfig func(*testing.T, *Config)
	}{
		{
			name: "正常系: デフォルト値で設定を読み込む",
			checkConfig: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "development", cfg.Environment)
				assert.Equal(t, "DEBUG", cfg.LogLevel)
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 3306, cfg.Database.Port)
				assert.Equal(t, "test_db", cfg.Database.Database)
				assert.Equal(t, int64(10), cfg.Economy.TokensPerLevel)
				assert.Equal(t, 100, cfg.Economy.DefaultMaxLevel)
				assert.Equal(t, 50*time.Millisecond, cfg.Economy.SessionGracePeriod)
				assert.Equal(t, 256, cfg.Economy.LockShards)
				assert.Equal(t, 8, cfg.Economy.FlushConcurrency)
				assert.Equal(t, "configs/shop", cfg.Economy.CatalogDir)
				assert.False(t, cfg.AdminAPI.Enabled)
				assert.False(t, cfg.Redis.Enabled)
				assert.True(t, cfg.GRPC.Enabled)
				assert.Equal(t, 9090, cfg.GRPC.Port)
				assert.Equal(t, "skillcoins", cfg.JWT.Issuer)
			},
		},
		{
			name: "正常系: 経済設定を環境変数から読み込む",
			env: map[string]string{
				"ECONOMY_TOKENS_PER_LEVEL":     "25",
				"ECONOMY_SKILL_MAX_LEVELS":     "Sorcery=50, mining=60",
				"ECONOMY_SESSION_GRACE_PERIOD": "200ms",
				"ECONOMY_REWARD_CACHE_TTL":     "1m",
			},
			checkConfig: func(t *testing.T, cfg *Config) {
				assert.Equal(t, int64(25), cfg.Economy.TokensPerLevel)
				assert.Equal(t, map[string]int{"sorcery": 50, "mining": 60}, cfg.Economy.SkillMaxLevels)
				assert.Equal(t, 200*time.Millisecond, cfg.Economy.SessionGracePeriod)
				assert.Equal(t, time.Minute, cfg.Economy.RewardCacheTTL)
			},
		},
		{
			name: "正常系: 本番環境の設定",
			env: map[string]string{
				"ENVIRONMENT":    "production",
				"SERVER_PORT":    "9000",
				"DB_HOST":        "db.example.com",
				"DB_PORT":        "3307",
				"DB_NAME":        "prod_db",
				"JWT_SECRET":     "prod-secret",
				"JWT_EXPIRATION": "12h",
			},
			checkConfig: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "production", cfg.Environment)
				assert.Equal(t, "INFO", cfg.LogLevel)
				assert.Equal(t, 9000, cfg.Server.Port)
				assert.Equal(t, "db.example.com", cfg.Database.Host)
				assert.Equal(t, 3307, cfg.Database.Port)
				assert.Equal(t, "prod_db", cfg.Database.Database)
				assert.Equal(t, "prod-secret", cfg.JWT.Secret)
				assert.Equal(t, 12*time.Hour, cfg.JWT.Expiration)
			},
		},
		{
			name: "正常系: LOG_LEVELは環境より優先",
			env:  map[string]string{"ENVIRONMENT": "production", "LOG_LEVEL": "warn"},
			checkConfig: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "warn", cfg.LogLevel)
			},
		},
		{
			name: "正常系: 管理APIの許可IPを読み込む",
			env: map[string]string{
				"ADMIN_API_ENABLED":     "true",
				"ADMIN_API_KEY":         "admin-key",
				"ADMIN_API_ALLOWED_IPS": "10.0.0.0/8, 192.168.1.10",
			},
			checkConfig: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.AdminAPI.Enabled)
				assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.10"}, cfg.AdminAPI.AllowedIPs)
			},
		},
		{
			name: "正常系: DB_HOSTとDB_NAMEが空ならデフォルト値",
			env:  map[string]string{"DB_HOST": "", "DB_NAME": ""},
			checkConfig: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "localhost", cfg.Database.Host)
				assert.Equal(t, "skillcoins", cfg.Database.Database)
			},
		},
		{
			name:      "異常系: JWT_SECRETが空",
			env:       map[string]string{"JWT_SECRET": ""},
			wantError: "JWT_SECRET",
		},
		{
			name:      "異常系: 管理APIが有効なのにAPIキーが無い",
			env:       map[string]string{"ADMIN_API_ENABLED": "true"},
			wantError: "ADMIN_API_KEY",
		},
		{
			name:      "異常系: トークン単価が0",
			env:       map[string]string{"ECONOMY_TOKENS_PER_LEVEL": "0"},
			wantError: "ECONOMY_TOKENS_PER_LEVEL",
		},
		{
			name:      "異常系: スキル別上限が0",
			env:       map[string]string{"ECONOMY_SKILL_MAX_LEVELS": "mining=0"},
			wantError: "mining",
		},
		{
			name:      "異常系: ロックのシャード数が負",
			env:       map[string]string{"ECONOMY_LOCK_SHARDS": "-1"},
			wantError: "ECONOMY_LOCK_SHARDS",
		},
		{
			name:      "異常系: flush並列数が0",
			env:       map[string]string{"ECONOMY_FLUSH_CONCURRENCY": "0"},
			wantError: "ECONOMY_FLUSH_CONCURRENCY",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnv(t, tt.env)

			cfg, err := Load()

			if tt.wantError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantError)
				assert.Nil(t, cfg)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, cfg)
			if tt.checkConfig != nil {
				tt.checkConfig(t, cfg)
			}
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		User:     "skill",
		Password: "secret",
		Host:     "db.internal",
		Port:     3307,
		Database: "skillcoins",
	}

	assert.Equal(t,
		"skill:secret@tcp(db.internal:3307)/skillcoins?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.DSN())
}

func TestRedisConfig_Address(t *testing.T) {
	cfg := RedisConfig{Host: "redis.example.com", Port: 6379}
	assert.Equal(t, "redis.example.com:6379", cfg.Address())
}

func TestGetEnvAsInt(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue int
		want         int
	}{
		{name: "環境変数が設定されている", envValue: "123", defaultValue: 0, want: 123},
		{name: "環境変数が空", envValue: "", defaultValue: 456, want: 456},
		{name: "環境変数が無効な値", envValue: "invalid", defaultValue: 789, want: 789},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_INT", tt.envValue)
			assert.Equal(t, tt.want, getEnvAsInt("TEST_INT", tt.defaultValue))
		})
	}
}

func TestGetEnvAsBool(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue bool
		want         bool
	}{
		{name: "環境変数がtrue", envValue: "true", defaultValue: false, want: true},
		{name: "環境変数がfalse", envValue: "false", defaultValue: true, want: false},
		{name: "環境変数が空", envValue: "", defaultValue: true, want: true},
		{name: "環境変数が無効な値", envValue: "invalid", defaultValue: false, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_BOOL", tt.envValue)
			assert.Equal(t, tt.want, getEnvAsBool("TEST_BOOL", tt.defaultValue))
		})
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue time.Duration
		want         time.Duration
	}{
		{name: "環境変数が有効な時間", envValue: "1h", defaultValue: time.Minute, want: time.Hour},
		{name: "環境変数が空", envValue: "", defaultValue: time.Minute, want: time.Minute},
		{name: "環境変数が無効な値", envValue: "invalid", defaultValue: time.Hour, want: time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_DURATION", tt.envValue)
			assert.Equal(t, tt.want, getEnvAsDuration("TEST_DURATION", tt.defaultValue))
		})
	}
}

func TestGetEnvAsSlice(t *testing.T) {
	t.Setenv("TEST_SLICE", "10.0.0.1, 10.0.0.2,,")

	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, getEnvAsSlice("TEST_SLICE", nil))
	assert.Equal(t, []string{"x"}, getEnvAsSlice("TEST_SLICE_UNSET", []string{"x"}))
}

func TestGetEnvAsIntMap(t *testing.T) {
	t.Setenv("TEST_INT_MAP", "mining=50,broken,fishing=abc,Farming = 75")

	assert.Equal(t, map[string]int{"mining": 50, "farming": 75}, getEnvAsIntMap("TEST_INT_MAP"))
	assert.Empty(t, getEnvAsIntMap("TEST_INT_MAP_UNSET"))
}
