package repository

import (
	"testing"
	"time"

	"github.com/pawbridge/pawbridge-api/internal/domain"
)

// seedAccountGraph builds a user with records in every dependent table and
// returns the user along with the counterparty the records hang off.
func seedAccountGraph(t *testing.T, env *testEnv) (subject, other domain.User) {
	t.Helper()

	subject = mustRegisterUser(t, env, "subject", domain.RoleOwner,
		PetCreateParams{Name: "Rex", Breed: "Lab", Weight: 28},
		PetCreateParams{Name: "Fifi", Breed: "Poodle", Weight: 6},
	)
	other = mustRegisterUser(t, env, "counterpart", domain.RoleWalker)

	pets, err := env.repository.Pets.ListByOwner(env.ctx, subject.ID)
	if err != nil {
		t.Fatalf("list pets: %v", err)
	}

	var apptIDs []int64
	for i := 0; i < 3; i++ {
		apptIDs = append(apptIDs, mustCreateAppointment(t, env, pets[i%len(pets)].ID, other.ID))
	}

	for i := 0; i < 3; i++ {
		if _, err := env.repository.Messages.Send(env.ctx, subject.ID, other.ID, "woof"); err != nil {
			t.Fatalf("send: %v", err)
		}
	}
	for i := 0; i < 2; i++ {
		if _, err := env.repository.Messages.Send(env.ctx, other.ID, subject.ID, "woof back"); err != nil {
			t.Fatalf("send: %v", err)
		}
	}

	if _, err := env.repository.Reviews.Create(env.ctx, ReviewCreateParams{
		AppointmentID: apptIDs[0], ReviewerID: subject.ID, Rating: 5,
	}); err != nil {
		t.Fatalf("review: %v", err)
	}

	if _, err := env.repository.Reports.Create(env.ctx, subject.ID, other.ID, "left muddy pawprints"); err != nil {
		t.Fatalf("report: %v", err)
	}
	if _, err := env.repository.Reports.Create(env.ctx, other.ID, subject.ID, "no-show"); err != nil {
		t.Fatalf("report: %v", err)
	}

	return subject, other
}

func TestUsersRepository_DeleteRemovesEverything(t *testing.T) {
	env := newTestEnv(t)
	defer env.cleanup()

	subject, other := seedAccountGraph(t, env)

	// A slot for the counterparty survives untouched; the subject is an
	// owner, so none of the slots belong to them.
	if _, err := env.repository.Availability.Create(env.ctx, AvailabilityCreateParams{
		ProviderID: other.ID,
		Date:       time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC),
		StartTime:  "08:00:00",
		EndTime:    "12:00:00",
	}); err != nil {
		t.Fatalf("slot: %v", err)
	}

	if err := env.repository.Users.Delete(env.ctx, subject.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}

	for table, want := range map[string]int64{
		"users":              1, // the counterparty
		"pets":               0,
		"appointments":       0,
		"reviews":            0,
		"messages":           0,
		"reports":            0,
		"availability_slots": 1,
	} {
		if got := tableCount(t, env, table); got != want {
			t.Errorf("%s = %d, want %d", table, got, want)
		}
	}

	if _, err := env.repository.Users.GetByID(env.ctx, subject.ID); err != ErrNotFound {
		t.Fatalf("deleted user lookup = %v, want ErrNotFound", err)
	}
}

func TestUsersRepository_DeleteProviderSide(t *testing.T) {
	env := newTestEnv(t)
	defer env.cleanup()

	owner, other := seedAccountGraph(t, env)

	// Deleting the provider must also empty the graph: every appointment,
	// review, message and report here involves the provider.
	if _, err := env.repository.Availability.Create(env.ctx, AvailabilityCreateParams{
		ProviderID: other.ID,
		Date:       time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC),
		StartTime:  "08:00:00",
		EndTime:    "12:00:00",
	}); err != nil {
		t.Fatalf("slot: %v", err)
	}

	if err := env.repository.Users.Delete(env.ctx, other.ID); err != nil {
		t.Fatalf("delete provider: %v", err)
	}

	for table, want := range map[string]int64{
		"users":              1, // the owner
		"pets":               2, // owner's pets stay
		"appointments":       0,
		"reviews":            0,
		"messages":           0,
		"reports":            0,
		"availability_slots": 0,
	} {
		if got := tableCount(t, env, table); got != want {
			t.Errorf("%s = %d, want %d", table, got, want)
		}
	}

	if _, err := env.repository.Users.GetByID(env.ctx, owner.ID); err != nil {
		t.Fatalf("owner should still exist: %v", err)
	}
}

func TestUsersRepository_DeleteRollsBackOnFailure(t *testing.T) {
	env := newTestEnv(t)
	defer env.cleanup()

	subject, _ := seedAccountGraph(t, env)

	before := map[string]int64{}
	for _, table := range []string{"users", "pets", "appointments", "reviews", "messages", "reports"} {
		before[table] = tableCount(t, env, table)
	}

	// Make one of the later cascade statements blow up mid-transaction and
	// verify that nothing from the earlier statements sticks.
	if _, err := env.pool.Exec(env.ctx, `
        CREATE FUNCTION refuse_pet_delete() RETURNS trigger AS $$
        BEGIN
            RAISE EXCEPTION 'pets are forever';
        END
        $$ LANGUAGE plpgsql;

        CREATE TRIGGER refuse_pet_delete BEFORE DELETE ON pets
        FOR EACH ROW EXECUTE FUNCTION refuse_pet_delete();
    `); err != nil {
		t.Fatalf("install trigger: %v", err)
	}

	if err := env.repository.Users.Delete(env.ctx, subject.ID); err == nil {
		t.Fatalf("delete succeeded despite failing trigger")
	}

	for table, want := range before {
		if got := tableCount(t, env, table); got != want {
			t.Errorf("%s = %d after rollback, want %d", table, got, want)
		}
	}
}

func TestUsersRepository_DeleteRefusesAdmin(t *testing.T) {
	env := newTestEnv(t)
	defer env.cleanup()

	admin := mustRegisterUser(t, env, "root", domain.RoleAdmin)

	if err := env.repository.Users.Delete(env.ctx, admin.ID); err != ErrForbidden {
		t.Fatalf("delete admin error = %v, want ErrForbidden", err)
	}
	if _, err := env.repository.Users.GetByID(env.ctx, admin.ID); err != nil {
		t.Fatalf("admin should still exist: %v", err)
	}
}

func TestUsersRepository_DeleteMissingUser(t *testing.T) {
	env := newTestEnv(t)
	defer env.cleanup()

	if err := env.repository.Users.Delete(env.ctx, 987654); err != ErrNotFound {
		t.Fatalf("delete missing user error = %v, want ErrNotFound", err)
	}
}
