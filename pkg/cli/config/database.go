package config

import "github.com/urfave/cli/v3"

// Database holds the credentials written into the target's .env for the
// database bootstrap that runs after installation
type Database struct {
	User          string
	Password      string
	AdminPassword string
}

// Flags returns CLI flags for database configuration
func (c *Database) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "db-user",
			Usage:       "Database user recorded in the target's .env",
			Destination: &c.User,
			Sources:     cli.EnvVars("SLIPWAY_DB_USER"),
		},
		&cli.StringFlag{
			Name:        "db-password",
			Usage:       "Database password recorded in the target's .env",
			Destination: &c.Password,
			Sources:     cli.EnvVars("SLIPWAY_DB_PASSWORD"),
		},
		&cli.StringFlag{
			Name:        "db-admin-password",
			Usage:       "Database administrator password recorded in the target's .env",
			Destination: &c.AdminPassword,
			Sources:     cli.EnvVars("SLIPWAY_DB_ADMIN_PASSWORD"),
		},
	}
}
