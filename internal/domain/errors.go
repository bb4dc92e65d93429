package domain

import "errors"

// Errores de dominio (sin dependencias externas).
// Los casos de uso los envuelven con fmt.Errorf("...: %w", err) para conservar
// contexto; los handlers HTTP los traducen a códigos de estado con errors.Is.
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrConfiguration     = errors.New("configuración incompleta")
	ErrExternalAPI       = errors.New("error del API externo del POS")
	ErrPeriodClosed      = errors.New("el periodo ya está cerrado")
	ErrNoRecipe          = errors.New("el producto no tiene receta vigente")
	ErrSyncInProgress    = errors.New("ya hay una sincronización en curso")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrInsufficientStock = errors.New("stock insuficiente")
)
