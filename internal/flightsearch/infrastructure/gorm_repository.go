package infrastructure

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mateusmacedo/go-flights/internal/flightsearch/domain"
	"github.com/mateusmacedo/go-flights/pkg/application"
)

const upsertChunkSize = 500

var upsertColumns = []string{"departure_code", "arrival_code", "departure_time", "arrival_time", "price"}

// NewDialector escolhe o dialeto do gorm para o driver configurado.
func NewDialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "postgres":
		return postgres.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

type GormTicketRepository struct {
	db     *gorm.DB
	logger application.AppLogger
}

func NewGormTicketRepository(dialector gorm.Dialector, logger application.AppLogger) (*GormTicketRepository, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err = db.AutoMigrate(&domain.Ticket{}); err != nil {
		return nil, err
	}

	return &GormTicketRepository{
		db:     db,
		logger: logger,
	}, nil
}

func (r *GormTicketRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// UpsertBatch grava o lote inteiro em uma transação com INSERT ... ON CONFLICT (id) DO UPDATE.
// IDs repetidos são colapsados antes, pois um único statement não pode tocar a mesma linha duas vezes.
func (r *GormTicketRepository) UpsertBatch(ctx context.Context, tickets []domain.Ticket) error {
	if err := domain.ValidateBatch(tickets); err != nil {
		return err
	}
	tickets = domain.DedupeBatch(tickets)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns(upsertColumns),
		}).CreateInBatches(&tickets, upsertChunkSize).Error
	})
	if err != nil {
		application.LogError(ctx, r.logger, "failed to upsert tickets", err, map[string]interface{}{
			"count": len(tickets),
		})
		return domain.NewStorageError("upsert batch", err)
	}

	application.LogDebug(ctx, r.logger, "tickets upserted", map[string]interface{}{
		"count": len(tickets),
	})
	return nil
}

// FindDirect mantém as linhas mais baratas ao limitar, então o limite nunca esconde
// uma passagem que entraria no resultado final.
func (r *GormTicketRepository) FindDirect(ctx context.Context, criteria domain.SearchCriteria) ([]domain.OneLegSolution, error) {
	if criteria.Limit <= 0 {
		return []domain.OneLegSolution{}, nil
	}

	var tickets []domain.Ticket
	err := r.db.WithContext(ctx).
		Where("departure_code = ? AND arrival_code = ?", criteria.DepartureCode, criteria.ArrivalCode).
		Where("departure_time BETWEEN ? AND ?", criteria.Window.Start, criteria.Window.End).
		Order("price ASC, departure_time ASC, id ASC").
		Limit(criteria.Limit).
		Find(&tickets).Error
	if err != nil {
		application.LogError(ctx, r.logger, "failed to find direct tickets", err, criteriaFields(criteria))
		return nil, domain.NewStorageError("find direct", err)
	}

	solutions := make([]domain.OneLegSolution, 0, len(tickets))
	for _, t := range tickets {
		solutions = append(solutions, domain.OneLegSolution{Ticket: t})
	}
	return solutions, nil
}

type connectionRow struct {
	FirstID             string
	FirstDepartureCode  string
	FirstArrivalCode    string
	FirstDepartureTime  int64
	FirstArrivalTime    int64
	FirstPrice          int64
	SecondID            string
	SecondDepartureCode string
	SecondArrivalCode   string
	SecondDepartureTime int64
	SecondArrivalTime   int64
	SecondPrice         int64
}

const connectionColumns = `t_from.id AS first_id,
	t_from.departure_code AS first_departure_code,
	t_from.arrival_code AS first_arrival_code,
	t_from.departure_time AS first_departure_time,
	t_from.arrival_time AS first_arrival_time,
	t_from.price AS first_price,
	t_to.id AS second_id,
	t_to.departure_code AS second_departure_code,
	t_to.arrival_code AS second_arrival_code,
	t_to.departure_time AS second_departure_time,
	t_to.arrival_time AS second_arrival_time,
	t_to.price AS second_price`

// FindConnections faz o self-join de tickets no aeroporto de conexão, com a faixa
// de escala passada como parâmetro.
func (r *GormTicketRepository) FindConnections(ctx context.Context, criteria domain.SearchCriteria) ([]domain.TwoLegSolution, error) {
	if criteria.Limit <= 0 {
		return []domain.TwoLegSolution{}, nil
	}

	minLayover, maxLayover := domain.LayoverBounds()

	var rows []connectionRow
	err := r.db.WithContext(ctx).
		Table("tickets AS t_from").
		Select(connectionColumns).
		Joins("JOIN tickets AS t_to ON t_to.departure_code = t_from.arrival_code AND t_to.departure_time - t_from.arrival_time BETWEEN ? AND ?", minLayover, maxLayover).
		Where("t_from.departure_code = ? AND t_to.arrival_code = ?", criteria.DepartureCode, criteria.ArrivalCode).
		Where("t_from.departure_time BETWEEN ? AND ?", criteria.Window.Start, criteria.Window.End).
		Order("t_from.price + t_to.price ASC, t_from.departure_time ASC, t_from.id ASC, t_to.id ASC").
		Limit(criteria.Limit).
		Scan(&rows).Error
	if err != nil {
		application.LogError(ctx, r.logger, "failed to find connections", err, criteriaFields(criteria))
		return nil, domain.NewStorageError("find connections", err)
	}

	solutions := make([]domain.TwoLegSolution, 0, len(rows))
	for _, row := range rows {
		solutions = append(solutions, domain.TwoLegSolution{
			First: domain.Ticket{
				ID:            row.FirstID,
				DepartureCode: row.FirstDepartureCode,
				ArrivalCode:   row.FirstArrivalCode,
				DepartureTime: row.FirstDepartureTime,
				ArrivalTime:   row.FirstArrivalTime,
				Price:         row.FirstPrice,
			},
			Second: domain.Ticket{
				ID:            row.SecondID,
				DepartureCode: row.SecondDepartureCode,
				ArrivalCode:   row.SecondArrivalCode,
				DepartureTime: row.SecondDepartureTime,
				ArrivalTime:   row.SecondArrivalTime,
				Price:         row.SecondPrice,
			},
		})
	}
	return solutions, nil
}

func criteriaFields(criteria domain.SearchCriteria) map[string]interface{} {
	return map[string]interface{}{
		"departure_code": criteria.DepartureCode,
		"arrival_code":   criteria.ArrivalCode,
		"window_start":   criteria.Window.Start,
		"window_end":     criteria.Window.End,
		"limit":          criteria.Limit,
	}
}
