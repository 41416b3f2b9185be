// Package conf loads and holds the runtime configuration.
package conf

import (
	"fmt"

	"github.com/spf13/viper"
)

// Settings contains all runtime settings for the application.
type Settings struct {
	Debug bool `mapstructure:"debug"`

	Main struct {
		Host     string `mapstructure:"host"`     // listen address, default 0.0.0.0
		Port     string `mapstructure:"port"`     // listen port, default 8080
		DBPath   string `mapstructure:"dbpath"`   // sqlite database file
		LogLevel string `mapstructure:"loglevel"` // debug/info/warn/error
	} `mapstructure:"main"`

	Audio struct {
		Device string `mapstructure:"device"` // playback device name, empty = system default
	} `mapstructure:"audio"`

	Mail struct {
		Address   string `mapstructure:"address"`   // sender/recipient address
		Password  string `mapstructure:"password"`  // smtp password
		Signature string `mapstructure:"signature"` // signature line in the mail body
		Host      string `mapstructure:"host"`      // smtp relay host
		Port      int    `mapstructure:"port"`      // smtp relay port (implicit TLS)
	} `mapstructure:"mail"`
}

// MailEnabled reports whether the mail collaborator is configured.
func (s *Settings) MailEnabled() bool {
	return s.Mail.Address != "" && s.Mail.Password != ""
}

// Addr returns the host:port the HTTP server should listen on.
func (s *Settings) Addr() string {
	return s.Main.Host + ":" + s.Main.Port
}

// Load reads configuration from an optional config file and the environment.
// Environment variables keep the names of the original deployment:
// HOST, PORT, MAIL_ADDR, MAIL_PASS, MAIL_SIGNATURE and CSENGO_LOG.
func Load() (*Settings, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("csengo")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/csengo/")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// no config file is fine, env and defaults apply
	}

	bindEnv(v)

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return settings, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)
	v.SetDefault("main.host", "0.0.0.0")
	v.SetDefault("main.port", "8080")
	v.SetDefault("main.dbpath", "./csengo.db")
	v.SetDefault("main.loglevel", "info")
	v.SetDefault("audio.device", "")
	v.SetDefault("mail.address", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.signature", "Stúdiósok")
	v.SetDefault("mail.host", "smtp.gmail.com")
	v.SetDefault("mail.port", 465)
}

func bindEnv(v *viper.Viper) {
	// errors are only returned for empty keys
	_ = v.BindEnv("main.host", "HOST")
	_ = v.BindEnv("main.port", "PORT")
	_ = v.BindEnv("main.dbpath", "CSENGO_DB")
	_ = v.BindEnv("main.loglevel", "CSENGO_LOG")
	_ = v.BindEnv("audio.device", "CSENGO_AUDIO_DEVICE")
	_ = v.BindEnv("mail.address", "MAIL_ADDR")
	_ = v.BindEnv("mail.password", "MAIL_PASS")
	_ = v.BindEnv("mail.signature", "MAIL_SIGNATURE")
	_ = v.BindEnv("mail.host", "MAIL_HOST")
	_ = v.BindEnv("mail.port", "MAIL_PORT")
}
