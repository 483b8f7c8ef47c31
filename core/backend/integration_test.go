//go:build integration

package backend_test

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/relabs-tech/fanpages/core"
	"github.com/relabs-tech/fanpages/core/backend"
	"github.com/relabs-tech/fanpages/core/client"
	"github.com/relabs-tech/fanpages/core/csql"
	"github.com/relabs-tech/fanpages/core/logger"
	"github.com/relabs-tech/fanpages/core/notifier"
)

const notificationTopic = "fan_page_notification_test"

type IntegrationTestSuite struct {
	suite.Suite

	network           testcontainers.Network
	postgresContainer testcontainers.Container
	zookeeper         testcontainers.Container
	kafkaContainer    testcontainers.Container
	kafkaConn         *kafka.Conn
	kafkaAddr         string

	db       *csql.DB
	notifier *notifier.Kafka
	router   *mux.Router
	client   client.Client
}

func TestIntegration(t *testing.T) {
	suite.Run(t, new(IntegrationTestSuite))
}

func (s *IntegrationTestSuite) SetupSuite() {
	ctx := context.Background()
	logger.InitLogger(logger.ParseLevel("warning"))

	networkName := "fanpages-test-network_" + fmt.Sprintf("%d", time.Now().Unix())
	network, err := testcontainers.GenericNetwork(ctx, testcontainers.GenericNetworkRequest{
		NetworkRequest: testcontainers.NetworkRequest{
			Name:           networkName,
			CheckDuplicate: true,
		},
	})
	s.Require().NoError(err)
	s.network = network

	postgresUser := "testuser"
	postgresPassword := "testpass"
	postgresDB := "testdb"
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:15",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     postgresUser,
				"POSTGRES_PASSWORD": postgresPassword,
				"POSTGRES_DB":       postgresDB,
			},
			Networks:       []string{networkName},
			NetworkAliases: map[string][]string{networkName: {"postgres"}},
			WaitingFor:     wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		},
		Started: true,
	})
	s.Require().NoError(err)
	s.postgresContainer = pgC

	pgHost, err := pgC.Host(ctx)
	s.Require().NoError(err)
	pgPort, err := pgC.MappedPort(ctx, "5432")
	s.Require().NoError(err)

	zooC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "confluentinc/cp-zookeeper:7.5.0",
			ExposedPorts: []string{"2181/tcp"},
			Env: map[string]string{
				"ZOOKEEPER_CLIENT_PORT": "2181",
				"ZOOKEEPER_TICK_TIME":   "2000",
			},
			WaitingFor:     wait.ForListeningPort("2181/tcp"),
			Networks:       []string{networkName},
			NetworkAliases: map[string][]string{networkName: {"zookeeper"}},
		},
		Started: true,
	})
	s.Require().NoError(err)
	s.zookeeper = zooC

	kafkaC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "confluentinc/cp-kafka:7.5.0",
			ExposedPorts: []string{"9092:9092/tcp", "29092:29092/tcp"},
			Env: map[string]string{
				"KAFKA_BROKER_ID":                        "1",
				"KAFKA_ZOOKEEPER_CONNECT":                "zookeeper:2181",
				"KAFKA_LISTENERS":                        "PLAINTEXT://0.0.0.0:9092,PLAINTEXT_HOST://0.0.0.0:29092,EXTERNAL://0.0.0.0:9093",
				"KAFKA_ADVERTISED_LISTENERS":             "PLAINTEXT://localhost:9092,PLAINTEXT_HOST://localhost:29092,EXTERNAL://kafka:9093",
				"KAFKA_LISTENER_SECURITY_PROTOCOL_MAP":   "PLAINTEXT:PLAINTEXT,PLAINTEXT_HOST:PLAINTEXT,EXTERNAL:PLAINTEXT",
				"KAFKA_OFFSETS_TOPIC_REPLICATION_FACTOR": "1",
				"ALLOW_PLAINTEXT_LISTENER":               "yes",
			},
			WaitingFor:     wait.ForLog("started (kafka.server.KafkaServer)"),
			Networks:       []string{networkName},
			NetworkAliases: map[string][]string{networkName: {"kafka"}},
		},
		Started: true,
	})
	s.Require().NoError(err)
	s.kafkaContainer = kafkaC

	kafkaHost, err := kafkaC.Host(ctx)
	s.Require().NoError(err)
	kafkaPort, err := kafkaC.MappedPort(ctx, "9092")
	s.Require().NoError(err)
	s.kafkaAddr = fmt.Sprintf("%s:%s", kafkaHost, kafkaPort.Port())

	s.kafkaConn, err = kafka.Dial("tcp", s.kafkaAddr)
	s.Require().NoError(err)
	err = s.kafkaConn.CreateTopics(kafka.TopicConfig{
		Topic:             notificationTopic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	s.Require().NoError(err, "cannot create notification topic")

	s.db = csql.OpenWithSchemas(fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=disable",
		pgHost, pgPort.Port(), postgresUser, postgresDB), postgresPassword, backend.Schemas...)
	s.notifier = notifier.NewKafka([]string{s.kafkaAddr}, notificationTopic)
}

func (s *IntegrationTestSuite) TearDownSuite() {
	ctx := context.Background()
	if s.notifier != nil {
		s.NoError(s.notifier.Close())
	}
	if s.kafkaConn != nil {
		s.kafkaConn.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
	for _, c := range []testcontainers.Container{s.kafkaContainer, s.zookeeper, s.postgresContainer} {
		if c != nil {
			s.NoError(c.Terminate(ctx))
		}
	}
	if s.network != nil {
		s.NoError(s.network.Remove(ctx))
	}
}

// SetupTest starts every test with empty tables
func (s *IntegrationTestSuite) SetupTest() {
	s.db.ClearSchemas()
	s.router = mux.NewRouter()
	logger.AddRequestID(s.router)
	backend.New(&backend.Builder{
		DB:           s.db,
		Router:       s.router,
		Notifier:     s.notifier,
		UpdateSchema: true,
		PasswordCost: 4,
	})
	s.client = client.NewWithRouter(s.router)
}

// fixture creates a user with a person, a fan page and a role
type fixture struct {
	user    backend.User
	person  backend.Person
	fanPage backend.FanPage
	role    backend.Role
}

func (s *IntegrationTestSuite) createFixture(name string) fixture {
	var f fixture
	_, err := s.client.Collection("users").Create(backend.UserCreate{
		Alias: name, Email: name + "@example.com", Password: "secret", Status: "active",
	}, &f.user)
	s.Require().NoError(err)

	_, err = s.client.Collection("personas").Create(backend.PersonCreate{
		FirstName: name, LastName: "Tester", BirthDate: backend.NewDate(1990, time.May, 17),
		Sex: "F", UserID: f.user.UserID,
	}, &f.person)
	s.Require().NoError(err)

	_, err = s.client.Collection("fan_pages").Create(backend.FanPageCreate{
		Name: name + " fans", CreatedOn: backend.NewDate(2021, time.January, 2), Status: "active",
	}, &f.fanPage)
	s.Require().NoError(err)

	_, err = s.client.Collection("roles").Create(backend.RoleCreate{
		Name: name + " admin", Status: "active",
	}, &f.role)
	s.Require().NoError(err)
	return f
}

func (s *IntegrationTestSuite) countAssignments() int {
	var all []backend.RoleFanPage
	_, err := s.client.Collection("rol_fan_pages").List(&all)
	s.Require().NoError(err)
	return len(all)
}

func (s *IntegrationTestSuite) TestAssignmentEmbedsRelatedEntities() {
	f := s.createFixture("ana")

	var created backend.RoleFanPage
	status, err := s.client.Collection("rol_fan_pages").Create(backend.RoleFanPageCreate{
		PersonID: f.person.PersonID, FanPageID: f.fanPage.FanPageID, RoleID: f.role.RoleID, Status: "active",
	}, &created)
	s.Require().NoError(err)
	s.Equal(http.StatusCreated, status)

	var person backend.Person
	_, err = s.client.Collection("personas").Item(f.person.PersonID).Read(&person)
	s.Require().NoError(err)
	var fanPage backend.FanPage
	_, err = s.client.Collection("fan_pages").Item(f.fanPage.FanPageID).Read(&fanPage)
	s.Require().NoError(err)
	var role backend.Role
	_, err = s.client.Collection("roles").Item(f.role.RoleID).Read(&role)
	s.Require().NoError(err)

	s.Equal(person, created.Person)
	s.Equal(fanPage, created.FanPage)
	s.Equal(role, created.Role)
	s.Equal(f.user, created.Person.User)

	var read backend.RoleFanPage
	_, err = s.client.Collection("rol_fan_pages").Item(created.RoleFanPageID).Read(&read)
	s.Require().NoError(err)
	s.Equal(created, read)
}

func (s *IntegrationTestSuite) TestAssignmentWithMissingRelatedIsRejected() {
	f := s.createFixture("bob")
	valid := backend.RoleFanPageCreate{
		PersonID: f.person.PersonID, FanPageID: f.fanPage.FanPageID, RoleID: f.role.RoleID, Status: "active",
	}

	missingPerson, missingFanPage, missingRole := valid, valid, valid
	missingPerson.PersonID += 1000
	missingFanPage.FanPageID += 1000
	missingRole.RoleID += 1000

	for _, payload := range []backend.RoleFanPageCreate{missingPerson, missingFanPage, missingRole} {
		status, err := s.client.Collection("rol_fan_pages").Create(payload, nil)
		s.Error(err)
		s.Equal(http.StatusBadRequest, status)
	}
	s.Equal(0, s.countAssignments())
}

func (s *IntegrationTestSuite) TestReadMissingAssignment() {
	status, err := s.client.Collection("rol_fan_pages").Item(4711).Read(nil)
	s.Error(err)
	s.Equal(http.StatusNotFound, status)
}

func (s *IntegrationTestSuite) TestUpdateToMissingRoleLeavesAssignmentUnchanged() {
	f := s.createFixture("carl")
	var created backend.RoleFanPage
	_, err := s.client.Collection("rol_fan_pages").Create(backend.RoleFanPageCreate{
		PersonID: f.person.PersonID, FanPageID: f.fanPage.FanPageID, RoleID: f.role.RoleID, Status: "active",
	}, &created)
	s.Require().NoError(err)

	item := s.client.Collection("rol_fan_pages").Item(created.RoleFanPageID)
	status, err := item.Update(backend.RoleFanPageCreate{
		PersonID: f.person.PersonID, FanPageID: f.fanPage.FanPageID, RoleID: f.role.RoleID + 1000, Status: "changed",
	}, nil)
	s.Error(err)
	s.Equal(http.StatusBadRequest, status)

	var read backend.RoleFanPage
	_, err = item.Read(&read)
	s.Require().NoError(err)
	s.Equal(created, read)

	other := s.createFixture("dora")
	var updated backend.RoleFanPage
	status, err = item.Update(backend.RoleFanPageCreate{
		PersonID: f.person.PersonID, FanPageID: f.fanPage.FanPageID, RoleID: other.role.RoleID, Status: "changed",
	}, &updated)
	s.Require().NoError(err)
	s.Equal(http.StatusOK, status)
	s.Equal(other.role, updated.Role)
	s.Equal("changed", updated.Status)
}

func (s *IntegrationTestSuite) TestDeleteReturnsLastState() {
	f := s.createFixture("eve")
	var created backend.RoleFanPage
	_, err := s.client.Collection("rol_fan_pages").Create(backend.RoleFanPageCreate{
		PersonID: f.person.PersonID, FanPageID: f.fanPage.FanPageID, RoleID: f.role.RoleID, Status: "active",
	}, &created)
	s.Require().NoError(err)

	item := s.client.Collection("rol_fan_pages").Item(created.RoleFanPageID)
	var deleted backend.RoleFanPage
	status, err := item.Delete(&deleted)
	s.Require().NoError(err)
	s.Equal(http.StatusOK, status)
	s.Equal(created, deleted)

	status, err = item.Read(nil)
	s.Error(err)
	s.Equal(http.StatusNotFound, status)

	status, err = item.Delete(nil)
	s.Error(err)
	s.Equal(http.StatusNotFound, status)
}

func (s *IntegrationTestSuite) TestListWindowKeepsInsertionOrder() {
	roles := s.client.Collection("roles")
	var ids []int64
	for i := 1; i <= 3; i++ {
		var role backend.Role
		_, err := roles.Create(backend.RoleCreate{Name: "role " + strconv.Itoa(i), Status: "active"}, &role)
		s.Require().NoError(err)
		ids = append(ids, role.RoleID)
	}

	var page []backend.Role
	_, err := roles.WithSkip(0).WithLimit(2).List(&page)
	s.Require().NoError(err)
	s.Require().Len(page, 2)
	s.Equal(ids[0], page[0].RoleID)
	s.Equal(ids[1], page[1].RoleID)

	_, err = roles.WithSkip(2).WithLimit(2).List(&page)
	s.Require().NoError(err)
	s.Require().Len(page, 1)
	s.Equal(ids[2], page[0].RoleID)
}

func (s *IntegrationTestSuite) TestDeleteReferencedEntitiesIsRestricted() {
	f := s.createFixture("fred")
	_, err := s.client.Collection("rol_fan_pages").Create(backend.RoleFanPageCreate{
		PersonID: f.person.PersonID, FanPageID: f.fanPage.FanPageID, RoleID: f.role.RoleID, Status: "active",
	}, nil)
	s.Require().NoError(err)

	for path, id := range map[string]int64{
		"roles":     f.role.RoleID,
		"fan_pages": f.fanPage.FanPageID,
		"personas":  f.person.PersonID,
		"users":     f.user.UserID,
	} {
		status, err := s.client.Collection(path).Item(id).Delete(nil)
		s.Error(err, path)
		s.Equal(http.StatusConflict, status, path)
	}
	s.Equal(1, s.countAssignments())
}

func (s *IntegrationTestSuite) TestPersonWithDanglingUser() {
	status, err := s.client.Collection("personas").Create(backend.PersonCreate{
		FirstName: "nobody", LastName: "Tester", BirthDate: backend.NewDate(1990, time.May, 17),
		Sex: "M", UserID: 4711,
	}, nil)
	s.Error(err)
	s.Equal(http.StatusBadRequest, status)
}

func (s *IntegrationTestSuite) TestStatistics() {
	s.createFixture("gina")

	var stats struct {
		Resources []struct {
			Resource string `json:"resource"`
			Count    int64  `json:"count"`
		} `json:"resources"`
	}
	_, err := s.client.RawGet("/statistics", &stats)
	s.Require().NoError(err)
	counts := map[string]int64{}
	for _, r := range stats.Resources {
		counts[r.Resource] = r.Count
	}
	s.Equal(map[string]int64{"user": 1, "person": 1, "fan_page": 1, "role": 1, "role_fan_page": 0}, counts)
}

func (s *IntegrationTestSuite) TestCreateIsPublishedToKafka() {
	var role backend.Role
	_, err := s.client.Collection("roles").Create(backend.RoleCreate{Name: "published", Status: "active"}, &role)
	s.Require().NoError(err)

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   []string{s.kafkaAddr},
		Topic:     notificationTopic,
		Partition: 0,
		MaxWait:   100 * time.Millisecond,
	})
	defer reader.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	want := "role/" + strconv.FormatInt(role.RoleID, 10)
	for {
		msg, err := reader.ReadMessage(ctx)
		s.Require().NoError(err, "no notification for %s", want)
		if string(msg.Key) != want {
			continue
		}
		var value notifier.Message
		s.Require().NoError(json.Unmarshal(msg.Value, &value))
		if value.Operation != core.OperationCreate {
			continue
		}
		s.Equal("role", value.Resource)
		s.Equal(role.RoleID, value.ResourceID)
		s.NotEmpty(value.RequestID)
		return
	}
}

func (s *IntegrationTestSuite) TestIdentifierBeyondSerialRange() {
	status, err := s.client.RawGet("/rol_fan_pages/3000000000", nil)
	s.Error(err)
	s.Equal(http.StatusNotFound, status)

	f := s.createFixture("hank")
	status, err = s.client.RawPost("/rol_fan_pages/", []byte(fmt.Sprintf(
		`{"person_id":%d,"fan_page_id":%d,"role_id":3000000000,"status":"active"}`,
		f.person.PersonID, f.fanPage.FanPageID)), nil)
	s.Error(err)
	s.Equal(http.StatusBadRequest, status)
	s.Equal(0, s.countAssignments())
}
