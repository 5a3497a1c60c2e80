package patient

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// -- Mock Repository --

type mockRepo struct {
	patients  map[uuid.UUID]*Patient
	medicines map[uuid.UUID][]*Medicine

	failMedicines bool
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		patients:  make(map[uuid.UUID]*Patient),
		medicines: make(map[uuid.UUID][]*Medicine),
	}
}

func (m *mockRepo) Create(_ context.Context, p *Patient) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = time.Now()
	m.patients[p.ID] = p
	return nil
}

func (m *mockRepo) AddMedicines(_ context.Context, meds []*Medicine) error {
	if m.failMedicines {
		return errors.New("insert failed")
	}
	for _, med := range meds {
		med.ID = uuid.New()
		med.CreatedAt = time.Now()
		m.medicines[med.PatientID] = append(m.medicines[med.PatientID], med)
	}
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return p, nil
}

func (m *mockRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*Patient, error) {
	var result []*Patient
	for _, p := range m.patients {
		if p.UserID == userID {
			result = append(result, p)
		}
	}
	return result, nil
}

func (m *mockRepo) GetMedicines(_ context.Context, patientID uuid.UUID) ([]*Medicine, error) {
	return m.medicines[patientID], nil
}

func newTestService(repo Repository) *Service {
	return NewService(repo, zerolog.Nop())
}

// -- Tests --

func TestCreatePatient(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	p, err := svc.Create(ctx, CreateInput{
		UserID:           uuid.New(),
		Name:             "Ramesh Kumar",
		Age:              64,
		DiseaseCondition: "Anemia",
		Medicines: []MedicineInput{
			{MedicineName: "Ferrous Sulfate"},
		},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if p.ID == uuid.Nil {
		t.Error("Expected patient ID to be set")
	}
	if len(p.Medicines) != 1 {
		t.Fatalf("Expected 1 medicine, got %d", len(p.Medicines))
	}
	if p.Medicines[0].PatientID != p.ID {
		t.Error("Expected medicine to be linked to the patient")
	}
}

func TestCreatePatientValidation(t *testing.T) {
	svc := newTestService(newMockRepo())
	ctx := context.Background()

	cases := []CreateInput{
		{Name: "No User", Age: 40, DiseaseCondition: "Anemia"},
		{UserID: uuid.New(), Age: 40, DiseaseCondition: "Anemia"},
		{UserID: uuid.New(), Name: "No Age", DiseaseCondition: "Anemia"},
		{UserID: uuid.New(), Name: "No Condition", Age: 40},
	}
	for i, in := range cases {
		if _, err := svc.Create(ctx, in); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

func TestCreatePatientMedicineFailureDoesNotFail(t *testing.T) {
	repo := newMockRepo()
	repo.failMedicines = true
	svc := newTestService(repo)

	p, err := svc.Create(context.Background(), CreateInput{
		UserID:           uuid.New(),
		Name:             "Ramesh Kumar",
		Age:              64,
		DiseaseCondition: "Anemia",
		Medicines: []MedicineInput{
			{MedicineName: "Ferrous Sulfate"},
		},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(p.Medicines) != 0 {
		t.Error("Expected no medicines after failed insert")
	}
}

func TestGetPatientWithMedicines(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	p, err := svc.Create(ctx, CreateInput{
		UserID:           uuid.New(),
		Name:             "Ramesh Kumar",
		Age:              64,
		DiseaseCondition: "Anemia",
		Medicines: []MedicineInput{
			{MedicineName: "Ferrous Sulfate"},
			{MedicineName: "Folic Acid"},
		},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := svc.Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(got.Medicines) != 2 {
		t.Errorf("Expected 2 medicines, got %d", len(got.Medicines))
	}
}

func TestListPatientsByUser(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	userID := uuid.New()
	for i := 0; i < 3; i++ {
		if _, err := svc.Create(ctx, CreateInput{
			UserID:           userID,
			Name:             fmt.Sprintf("Patient %d", i),
			Age:              50 + i,
			DiseaseCondition: "Anemia",
		}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
	if _, err := svc.Create(ctx, CreateInput{
		UserID:           uuid.New(),
		Name:             "Other",
		Age:              30,
		DiseaseCondition: "Thalassemia",
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	list, err := svc.ListByUser(ctx, userID)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(list) != 3 {
		t.Errorf("Expected 3 patients, got %d", len(list))
	}
}
