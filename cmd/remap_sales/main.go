// remap_sales propone mapeos entre líneas de venta sin resolver (ids de
// catálogo del POS que ningún artículo de inventario reclama) y artículos de
// inventario sin mapear, usando el matching difuso de descripciones.
//
// Uso: go run ./cmd/remap_sales [-o propuestas.csv] [--apply]
//
// Sin --apply solo escribe el CSV de propuestas (dry-run). Con --apply
// persiste los mapeos no conflictivos vía UPDATE de external_id; las
// propuestas en conflicto (dos artículos empatados para el mismo id) nunca
// se aplican y quedan marcadas en el CSV para revisión humana.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/cafetero/cafeteria-api/internal/application/remap"
	"github.com/cafetero/cafeteria-api/internal/domain/matching"
	"github.com/cafetero/cafeteria-api/internal/infrastructure/postgres"
	"github.com/cafetero/cafeteria-api/pkg/config"
	"github.com/cafetero/cafeteria-api/pkg/logger"
)

func main() {
	var (
		outPath = flag.String("o", "", "ruta del CSV de propuestas (default stdout)")
		apply   = flag.Bool("apply", false, "persistir los mapeos no conflictivos")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}
	// Con el CSV en stdout el log se silencia: las filas no deben mezclarse
	// con líneas de log.
	log := logger.Nop()
	if *outPath != "" {
		log = logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "conexión a PostgreSQL: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	salesRepo := postgres.NewSalesRepository(pool)
	itemRepo := postgres.NewInventoryItemRepository(pool)
	proposer := remap.NewProposer(salesRepo, itemRepo, matching.TokenFuzzy{}, matching.EditDistance{}, log)

	proposals, err := proposer.Propose(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "calcular propuestas: %v\n", err)
		os.Exit(1)
	}

	out := os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "crear CSV: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}
	if err := remap.WriteCSV(out, proposals); err != nil {
		fmt.Fprintf(os.Stderr, "escribir CSV: %v\n", err)
		os.Exit(1)
	}

	if !*apply {
		fmt.Fprintf(os.Stderr, "%d propuestas (dry-run, nada persistido)\n", len(proposals))
		return
	}
	applied, err := proposer.Apply(ctx, proposals)
	if err != nil {
		fmt.Fprintf(os.Stderr, "aplicar mapeos: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "%d de %d propuestas aplicadas\n", applied, len(proposals))
}
