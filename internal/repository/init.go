package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/customeros/mailgate/config"
	"github.com/customeros/mailgate/interfaces"
	"github.com/customeros/mailgate/internal/models"
)

type Repositories struct {
	TenantRepository         interfaces.TenantRepository
	DomainRepository         interfaces.DomainRepository
	RouteRepository          interfaces.RouteRepository
	InboundMessageRepository interfaces.InboundMessageRepository
}

func InitRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		TenantRepository:         NewTenantRepository(db),
		DomainRepository:         NewDomainRepository(db),
		RouteRepository:          NewRouteRepository(db),
		InboundMessageRepository: NewInboundMessageRepository(db),
	}
}

func MigrateDB(dbConfig *config.DatabaseConfig, mailgateDB *gorm.DB) error {
	db, err := mailgateDB.DB()
	if err != nil {
		return err
	}

	db.SetMaxOpenConns(5)

	err = mailgateDB.AutoMigrate(
		&models.Tenant{},
		&models.Domain{},
		&models.Route{},
		&models.InboundMessage{},
	)

	db.SetMaxIdleConns(dbConfig.MaxIdleConn)
	db.SetMaxOpenConns(dbConfig.MaxConn)
	db.SetConnMaxLifetime(time.Duration(dbConfig.ConnMaxLifetime) * time.Minute)

	return err
}
