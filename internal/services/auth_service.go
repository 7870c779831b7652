package services

import (
	"fmt"
	"log"
	"time"

	"pharmapos/internal/models"
	"pharmapos/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles business logic for authentication and authorization.
type AuthService struct {
	workerRepo repositories.WorkerRepository
	jwtSecret  []byte
	tokenDurat time.Duration // Duration for which JWT is valid
}

// NewAuthService creates a new AuthService.
func NewAuthService(workerRepo repositories.WorkerRepository, jwtSecret string) *AuthService {
	return &AuthService{
		workerRepo: workerRepo,
		jwtSecret:  []byte(jwtSecret),
		tokenDurat: 24 * time.Hour, // Token valid for 24 hours
	}
}

// RegisterWorker registers a new worker, hashes their password, and saves
// them to the database.
func (s *AuthService) RegisterWorker(worker *models.Worker) error {
	// Check if email or employee ID already exists
	if existing, err := s.workerRepo.GetByEmail(worker.Email); err == nil && existing != nil {
		return fmt.Errorf("email '%s' already registered", worker.Email)
	}
	if existing, err := s.workerRepo.GetByEmployeeID(worker.EmployeeID); err == nil && existing != nil {
		return fmt.Errorf("employee ID '%s' already taken", worker.EmployeeID)
	}

	// Hash the password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(worker.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	worker.Password = string(hashedPassword) // Store the hashed password

	if worker.Role == "" {
		worker.Role = models.RoleWorker
	}
	worker.IsActive = true

	if err := s.workerRepo.Create(worker); err != nil {
		return fmt.Errorf("failed to register worker: %w", err)
	}
	return nil
}

// LoginWorker authenticates a worker and returns a JWT token if successful.
func (s *AuthService) LoginWorker(email, password string) (string, error) {
	worker, err := s.workerRepo.GetByEmail(email)
	if err != nil {
		// Do not reveal whether the email exists
		return "", fmt.Errorf("invalid credentials")
	}
	if !worker.IsActive {
		return "", fmt.Errorf("invalid credentials")
	}

	// Compare the provided password with the hashed password
	if err := bcrypt.CompareHashAndPassword([]byte(worker.Password), []byte(password)); err != nil {
		return "", fmt.Errorf("invalid credentials")
	}

	// Generate JWT token
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"worker_id":   worker.ID,
		"name":        worker.Name,
		"role":        worker.Role,
		"employee_id": worker.EmployeeID,
		"exp":         time.Now().Add(s.tokenDurat).Unix(), // Token expiration time
		"iat":         time.Now().Unix(),                   // Issued at time
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	return tokenString, nil
}

// ValidateToken parses and validates a JWT token, returning the claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Validate the alg is what we expect:
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})

	if err != nil {
		log.Printf("Token validation error: %v", err)
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}
