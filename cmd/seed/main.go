package main

import (
	"fmt"
	"log"

	"parkwise/internal/locations"
	"parkwise/internal/shared/config"
	"parkwise/internal/shared/database"
	"parkwise/internal/slots"
)

type Seeder struct {
	db *database.DB
}

func main() {
	fmt.Println("🌱 Starting Parkwise Database Seeder...")

	cfg := config.Load()

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := &Seeder{db: db}

	fmt.Println("\n🧹 Cleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}
	fmt.Println("✅ Database cleaned successfully")

	fmt.Println("\n🌱 Seeding database...")
	if err := seeder.SeedAll(); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}
	fmt.Println("✅ Database seeded successfully")

	fmt.Println("\n🎉 Seeding completed! Database is ready for testing.")
}

// CleanDatabase truncates all tables in the correct order (respecting foreign key constraints)
func (s *Seeder) CleanDatabase() error {
	tables := []string{"payments", "bookings", "slots", "locations"}
	for _, table := range tables {
		if err := s.db.GetPostgreSQL().Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error; err != nil {
			return fmt.Errorf("failed to truncate %s: %w", table, err)
		}
	}
	return nil
}

func (s *Seeder) SeedAll() error {
	seededLocations, err := s.seedLocations()
	if err != nil {
		return err
	}
	return s.seedSlots(seededLocations)
}

func (s *Seeder) seedLocations() ([]locations.Location, error) {
	allTypes := locations.VehicleTypes{
		locations.VehicleTypeCar,
		locations.VehicleTypeMotorcycle,
		locations.VehicleTypeTruck,
		locations.VehicleTypeVan,
	}
	carOnly := locations.VehicleTypes{locations.VehicleTypeCar, locations.VehicleTypeMotorcycle}

	seeds := []locations.Location{
		{
			Name:                  "Downtown Central Garage",
			Latitude:              40.7484,
			Longitude:             -73.9857,
			HourlyRate:            8.50,
			TotalCapacity:         120,
			SupportedVehicleTypes: allTypes,
			RoundUpHours:          false,
			Active:                true,
		},
		{
			Name:                  "Airport Long-Term Lot",
			Latitude:              40.6413,
			Longitude:             -73.7781,
			HourlyRate:            4.00,
			TotalCapacity:         500,
			SupportedVehicleTypes: allTypes,
			RoundUpHours:          true,
			Active:                true,
		},
		{
			Name:                  "Riverside Street Lot",
			Latitude:              40.8003,
			Longitude:             -73.9700,
			HourlyRate:            6.00,
			TotalCapacity:         40,
			SupportedVehicleTypes: carOnly,
			RoundUpHours:          false,
			Active:                true,
		},
	}

	for i := range seeds {
		if err := s.db.GetPostgreSQL().Create(&seeds[i]).Error; err != nil {
			return nil, fmt.Errorf("failed to seed location %q: %w", seeds[i].Name, err)
		}
		fmt.Printf("  📍 %s (%d slots capacity, $%.2f/h)\n", seeds[i].Name, seeds[i].TotalCapacity, seeds[i].HourlyRate)
	}
	return seeds, nil
}

func (s *Seeder) seedSlots(seededLocations []locations.Location) error {
	// A handful of slots per location is enough for local testing; real
	// deployments create the full inventory through the admin API.
	perLocation := 10

	for _, location := range seededLocations {
		for i := 1; i <= perLocation; i++ {
			types := location.SupportedVehicleTypes
			// Last two slots in each lot are oversize-capable only
			if i > perLocation-2 && types.Contains(locations.VehicleTypeTruck) {
				types = locations.VehicleTypes{locations.VehicleTypeTruck, locations.VehicleTypeVan}
			}

			slot := slots.Slot{
				LocationID:   location.ID,
				SlotNumber:   i,
				VehicleTypes: types,
				Status:       slots.StatusAvailable,
			}
			if err := s.db.GetPostgreSQL().Create(&slot).Error; err != nil {
				return fmt.Errorf("failed to seed slot %d at %q: %w", i, location.Name, err)
			}
		}
		fmt.Printf("  🅿️  %d slots at %s\n", perLocation, location.Name)
	}
	return nil
}
