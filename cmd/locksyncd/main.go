package main

import (
	"os"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Satyasy/smart-home-recognition-iot/internal/locksync"
)

func main() {
	var err error
	var configFile string
	var debug bool
	var config locksync.Config

	rootCmd := &cobra.Command{
		Use:   "locksyncd",
		Short: "Synchronize the smart door-lock devices and serve the dashboard API",
		// Main Entry Point
		Run: func(c *cobra.Command, args []string) {
			if debug {
				log.SetLevel(log.DebugLevel)
			}

			// Init
			s, err := locksync.New(config)
			if err != nil {
				log.Fatalf("Failed on init: %v", err)
			}

			err = s.Run()
			if err != nil {
				log.Fatalf("Failed on start: %v", err)
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config.json", "Path to configuration")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")

	// Defaults
	viper.SetDefault("backend.endpoint", "http://localhost:5000")
	viper.SetDefault("backend.timeout_ms", 10000)
	viper.SetDefault("lock_controller.timeout_ms", 5000)
	viper.SetDefault("camera.timeout_ms", 20000)
	viper.SetDefault("poll.health_interval_ms", 30000)
	viper.SetDefault("poll.logs_interval_ms", 5000)
	viper.SetDefault("poll.device_interval_ms", 2000)
	viper.SetDefault("poll.camera_interval_ms", 3000)
	viper.SetDefault("poll.log_limit", 20)
	viper.SetDefault("door.relock_delay_ms", 5000)
	viper.SetDefault("door.alert_duration_ms", 3000)
	viper.SetDefault("door.pin_length", 4)
	viper.SetDefault("sensors.proximity_threshold_cm", 30.0)
	viper.SetDefault("http.listen", ":8080")
	viper.SetDefault("http.server_name", "locksyncd")

	// Read Configuration File Before Start
	cobra.OnInitialize(func() {
		// .env overlay for endpoint addresses and credentials
		if err := godotenv.Load(); err == nil {
			log.Printf("Loaded .env overlay")
		}
		viper.SetEnvPrefix("LOCKSYNC")
		viper.AutomaticEnv()

		_, err := os.Stat(configFile)
		if os.IsNotExist(err) {
			envConfFile := os.Getenv("CONFIG_FILE")
			if envConfFile != "" {
				_, err := os.Stat(envConfFile)
				if os.IsNotExist(err) {
					log.Fatalf("Config file %s does not exist!", envConfFile)
				}

				configFile = envConfFile
			} else {
				log.Fatalf("Config file %s does not exist!", configFile)
			}
		}

		viper.SetConfigFile(configFile)
		viper.SetConfigType("json")
		err = viper.ReadInConfig()
		if err != nil {
			log.Fatalf("Failed to read config: %v", err)
		}

		err = viper.Unmarshal(&config)
		if err != nil {
			log.Fatalf("Failed to parse config: %v", err)
		}

		log.Printf("Loaded config file: %s", configFile)
	})

	// Launch (cobra.OnInitialize -> rootCmd.Run)
	err = rootCmd.Execute()
	if err != nil {
		log.Fatal(err)
	}
}
