package dynamodb

import (
	"context"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"consultorio-backend/application/ports"
	"consultorio-backend/domain/core/entities"
	"consultorio-backend/domain/core/valueobjects"
	pkgerrors "consultorio-backend/pkg/errors"
)

// Store implements ports.RemoteStore on two DynamoDB tables: patients and
// attendance, each keyed by id. Attendance carries patient_id, queried
// through a GSI for the cascade delete. Every item carries updated_at and an
// origin tag identifying the writing session.
type Store struct {
	client          *dynamodb.Client
	patientsTable   string
	attendanceTable string
	patientIndex    string
	origin          string
	logger          *zap.Logger
}

// NewStore creates a remote store writing with the given origin tag
func NewStore(
	client *dynamodb.Client,
	patientsTable, attendanceTable, patientIndex, origin string,
	logger *zap.Logger,
) *Store {
	return &Store{
		client:          client,
		patientsTable:   patientsTable,
		attendanceTable: attendanceTable,
		patientIndex:    patientIndex,
		origin:          origin,
		logger:          logger,
	}
}

// patientItem is the DynamoDB item structure for a patient
type patientItem struct {
	ID        string `dynamodbav:"id"`
	Name      string `dynamodbav:"name"`
	Phone     string `dynamodbav:"phone,omitempty"`
	Email     string `dynamodbav:"email,omitempty"`
	Notes     string `dynamodbav:"notes,omitempty"`
	CreatedAt string `dynamodbav:"created_at"`
	UpdatedAt string `dynamodbav:"updated_at"`
	Origin    string `dynamodbav:"origin"`
}

// attendanceItem is the DynamoDB item structure for an attendance record
type attendanceItem struct {
	ID        string `dynamodbav:"id"`
	PatientID string `dynamodbav:"patient_id"`
	Date      string `dynamodbav:"date"`
	Status    string `dynamodbav:"status"`
	Amount    string `dynamodbav:"amount"`
	Paid      bool   `dynamodbav:"paid"`
	UpdatedAt string `dynamodbav:"updated_at"`
	Origin    string `dynamodbav:"origin"`
}

// ListAll fetches both collections wholesale, joins attendance onto patients
// and orders patients by updated_at descending
func (s *Store) ListAll(ctx context.Context) (ports.RemoteSnapshot, error) {
	patientItems, err := s.scanPatients(ctx)
	if err != nil {
		return ports.RemoteSnapshot{}, err
	}
	attendanceItems, err := s.scanAttendance(ctx)
	if err != nil {
		return ports.RemoteSnapshot{}, err
	}

	byPatient := make(map[string][]entities.AttendanceRecord, len(patientItems))
	newest := time.Time{}
	for _, item := range attendanceItems {
		record, err := item.toRecord()
		if err != nil {
			s.logger.Warn("Skipping malformed remote attendance record",
				zap.String("recordID", item.ID),
				zap.Error(err),
			)
			continue
		}
		byPatient[item.PatientID] = append(byPatient[item.PatientID], record)
		if record.UpdatedAt.After(newest) {
			newest = record.UpdatedAt
		}
	}

	patients := make([]entities.Patient, 0, len(patientItems))
	for _, item := range patientItems {
		patient, err := item.toPatient()
		if err != nil {
			s.logger.Warn("Skipping malformed remote patient",
				zap.String("patientID", item.ID),
				zap.Error(err),
			)
			continue
		}
		records := byPatient[item.ID]
		sort.Slice(records, func(i, j int) bool { return records[i].Date.Before(records[j].Date) })
		patient.Attendance = records
		if patient.Attendance == nil {
			patient.Attendance = []entities.AttendanceRecord{}
		}
		if patient.UpdatedAt.After(newest) {
			newest = patient.UpdatedAt
		}
		patients = append(patients, patient)
	}

	sort.Slice(patients, func(i, j int) bool { return patients[i].UpdatedAt.After(patients[j].UpdatedAt) })

	return ports.RemoteSnapshot{Patients: patients, NewestUpdate: newest}, nil
}

// UpsertPatient writes the patient row. The attendance collection is pushed
// record by record, not as part of the patient payload.
func (s *Store) UpsertPatient(ctx context.Context, patient entities.Patient) error {
	item := patientItem{
		ID:        patient.ID.String(),
		Name:      patient.Name,
		Phone:     patient.Phone,
		Email:     patient.Email,
		Notes:     patient.Notes,
		CreatedAt: patient.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: time.Now().UTC().Format(time.RFC3339Nano),
		Origin:    s.origin,
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return pkgerrors.NewInternalError("failed to marshal patient item", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.patientsTable),
		Item:      av,
	})
	if err != nil {
		return pkgerrors.NewRemoteError("patient upsert failed", err)
	}
	return nil
}

// DeletePatient removes the patient row and cascades over the attendance GSI
func (s *Store) DeletePatient(ctx context.Context, id valueobjects.PatientID) error {
	key, err := attributevalue.MarshalMap(map[string]string{"id": id.String()})
	if err != nil {
		return pkgerrors.NewInternalError("failed to marshal patient key", err)
	}
	if _, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.patientsTable),
		Key:       key,
	}); err != nil {
		return pkgerrors.NewRemoteError("patient delete failed", err)
	}

	recordIDs, err := s.attendanceIDsForPatient(ctx, id)
	if err != nil {
		return err
	}
	for _, recordID := range recordIDs {
		if err := s.DeleteAttendance(ctx, recordID); err != nil {
			return err
		}
	}
	return nil
}

// UpsertAttendance writes one attendance row with a fresh updated_at
func (s *Store) UpsertAttendance(ctx context.Context, patientID valueobjects.PatientID, record entities.AttendanceRecord) error {
	item := attendanceItem{
		ID:        record.ID.String(),
		PatientID: patientID.String(),
		Date:      record.Date.UTC().Format(time.RFC3339Nano),
		Status:    record.Status.String(),
		Amount:    record.Amount.String(),
		Paid:      record.Paid,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339Nano),
		Origin:    s.origin,
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return pkgerrors.NewInternalError("failed to marshal attendance item", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.attendanceTable),
		Item:      av,
	})
	if err != nil {
		return pkgerrors.NewRemoteError("attendance upsert failed", err)
	}
	return nil
}

// DeleteAttendance removes one attendance row
func (s *Store) DeleteAttendance(ctx context.Context, id valueobjects.RecordID) error {
	key, err := attributevalue.MarshalMap(map[string]string{"id": id.String()})
	if err != nil {
		return pkgerrors.NewInternalError("failed to marshal attendance key", err)
	}
	if _, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.attendanceTable),
		Key:       key,
	}); err != nil {
		return pkgerrors.NewRemoteError("attendance delete failed", err)
	}
	return nil
}

// attendanceIDsForPatient queries the patient_id GSI for the cascade delete
func (s *Store) attendanceIDsForPatient(ctx context.Context, id valueobjects.PatientID) ([]valueobjects.RecordID, error) {
	keyCond := expression.Key("patient_id").Equal(expression.Value(id.String()))
	proj := expression.NamesList(expression.Name("id"))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).WithProjection(proj).Build()
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to build attendance query", err)
	}

	var ids []valueobjects.RecordID
	var startKey map[string]types.AttributeValue
	for {
		out, err := s.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(s.attendanceTable),
			IndexName:                 aws.String(s.patientIndex),
			KeyConditionExpression:    expr.KeyCondition(),
			ProjectionExpression:      expr.Projection(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return nil, pkgerrors.NewRemoteError("attendance query failed", err)
		}
		for _, item := range out.Items {
			var row struct {
				ID string `dynamodbav:"id"`
			}
			if err := attributevalue.UnmarshalMap(item, &row); err != nil {
				continue
			}
			ids = append(ids, valueobjects.RecordID(row.ID))
		}
		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	return ids, nil
}

func (s *Store) scanPatients(ctx context.Context) ([]patientItem, error) {
	var items []patientItem
	var startKey map[string]types.AttributeValue
	for {
		out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(s.patientsTable),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, pkgerrors.NewRemoteError("patients scan failed", err)
		}
		var page []patientItem
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, pkgerrors.NewRemoteError("failed to unmarshal patients", err)
		}
		items = append(items, page...)
		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	return items, nil
}

func (s *Store) scanAttendance(ctx context.Context) ([]attendanceItem, error) {
	var items []attendanceItem
	var startKey map[string]types.AttributeValue
	for {
		out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(s.attendanceTable),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, pkgerrors.NewRemoteError("attendance scan failed", err)
		}
		var page []attendanceItem
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, pkgerrors.NewRemoteError("failed to unmarshal attendance", err)
		}
		items = append(items, page...)
		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	return items, nil
}

func (it patientItem) toPatient() (entities.Patient, error) {
	id, err := valueobjects.ParsePatientID(it.ID)
	if err != nil {
		return entities.Patient{}, err
	}
	createdAt, err := time.Parse(time.RFC3339Nano, it.CreatedAt)
	if err != nil {
		return entities.Patient{}, err
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, it.UpdatedAt)
	if err != nil {
		return entities.Patient{}, err
	}
	return entities.Patient{
		ID:        id,
		Name:      it.Name,
		Phone:     it.Phone,
		Email:     it.Email,
		Notes:     it.Notes,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

func (it attendanceItem) toRecord() (entities.AttendanceRecord, error) {
	id, err := valueobjects.ParseRecordID(it.ID)
	if err != nil {
		return entities.AttendanceRecord{}, err
	}
	date, err := time.Parse(time.RFC3339Nano, it.Date)
	if err != nil {
		return entities.AttendanceRecord{}, err
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, it.UpdatedAt)
	if err != nil {
		return entities.AttendanceRecord{}, err
	}
	status, err := valueobjects.ParseStatus(it.Status)
	if err != nil {
		status = valueobjects.StatusUnset
	}
	amount, err := decimal.NewFromString(it.Amount)
	if err != nil {
		return entities.AttendanceRecord{}, err
	}
	return entities.AttendanceRecord{
		ID:        id,
		Date:      date,
		Status:    status,
		Amount:    amount,
		Paid:      it.Paid,
		UpdatedAt: updatedAt,
	}, nil
}
