package driver

import "fmt"

// Edge types with a fixed name. Relationship edges between people use the
// predicate text of the fact or rule, validated before it reaches a template.
const (
	FactEdge     = "IS"
	HasEdge      = "HAS"
	HasChatEdge  = "HAS_CHAT"
	SocialPrefix = "is_"
)

const (
	PingQuery = `RETURN 1 AS ok`

	UpsertPersonQuery = `
		MERGE (p:Person {uid: $session, full_name: $name})
		ON CREATE SET p.id = $id,
			p.created_at = $created_at
		RETURN p.id AS id, p.full_name AS full_name, p.created_at AS created_at
	`

	GetSessionPeopleQuery = `
		MATCH (p:Person {uid: $session})
		RETURN p.id AS id, p.full_name AS full_name, p.created_at AS created_at
		ORDER BY p.created_at, p.full_name
	`

	GetSessionRelationshipsQuery = `
		MATCH (n1:Person {uid: $session})-[r]->(n2:Person {uid: $session})
		RETURN n1.full_name AS source, type(r) AS relation, n2.full_name AS target,
			coalesce(r.inferred, false) AS inferred
	`

	GetOrCreateEpisodeQuery = `
		MERGE (h:ChatHistory {uid: $session})
		ON CREATE SET h.name = 'History',
			h.created_at = $created_at
		MERGE (h)-[:HAS]->(s:SessionHistory {uid: $session, name: $name})
		ON CREATE SET s.start_session = $created_at,
			s.overall_sentiments = $sentiment,
			s.memory_list = []
		RETURN s.name AS name, s.start_session AS start_session,
			s.overall_sentiments AS overall_sentiment, s.memory_list AS memory_list
	`

	SaveEpisodeQuery = `
		MATCH (s:SessionHistory {uid: $session, name: $name})
		SET s.overall_sentiments = $sentiment,
			s.memory_list = $memory_list
		RETURN s.name AS name
	`

	SaveEpisodePartQuery = `
		MATCH (s:SessionHistory {uid: $session, name: $episode})
		CREATE (e:EpisodePart {id: $id, uid: $session, name: $role, response: $response,
			sentiments: $sentiment, created_at: $created_at})
		CREATE (s)-[:HAS_CHAT]->(e)
		RETURN e.id AS id
	`

	GetEpisodePartsQuery = `
		MATCH (s:SessionHistory {uid: $session, name: $episode})-[:HAS_CHAT]->(e:EpisodePart)
		RETURN e.id AS id, e.name AS role, e.response AS response,
			e.sentiments AS sentiment, e.created_at AS created_at
		ORDER BY e.created_at
	`

	SocialLinkExistsQuery = `
		MATCH (p:Account {email: $email})
		MATCH (s:SocialNetwork {name: $name, uid: $session})
		MATCH (p)-[r]-(s)
		RETURN count(r) AS count
	`
)

const (
	createAttributeTemplate = `
		MATCH (p:Person {uid: $session, full_name: $name})
		CREATE (a:Attribute {id: $id, uid: $session, attribute: $attribute, created_at: $created_at})
		CREATE (p)-[:%s]->(a)
		RETURN a.id AS id
	`

	mergeRelationshipTemplate = `
		MATCH (n1:Person {uid: $session, full_name: $subject})
		MATCH (n2:Person {uid: $session, full_name: $object})
		MERGE (n1)-[r:` + "`%s`" + `]->(n2)
		ON CREATE SET r.inferred = $inferred,
			r.created_at = $created_at
		RETURN count(r) AS count
	`

	createRelationshipTemplate = `
		MATCH (n1:Person {uid: $session, full_name: $subject})
		MATCH (n2:Person {uid: $session, full_name: $object})
		CREATE (n1)-[r:` + "`%s`" + ` {inferred: $inferred, created_at: $created_at}]->(n2)
		RETURN count(r) AS count
	`

	relationshipExistsTemplate = `
		MATCH (n1:Person {uid: $session, full_name: $subject})-[r:` + "`%s`" + `]->(n2:Person {uid: $session, full_name: $object})
		RETURN count(r) AS count
	`

	relatedPeopleTemplate = `
		MATCH (p:Person {uid: $session, full_name: $name})<-[r:` + "`%[1]s`" + `]-(other:Person)
		RETURN other.full_name AS name, 'incoming' AS direction, coalesce(r.inferred, false) AS inferred
		UNION
		MATCH (p:Person {uid: $session, full_name: $name})-[r:` + "`%[1]s`" + `]->(other:Person)
		RETURN other.full_name AS name, 'outgoing' AS direction, coalesce(r.inferred, false) AS inferred
	`

	createSocialContactTemplate = `
		MERGE (p:Account {email: $email})
		CREATE (s:SocialNetwork {id: $id, name: $name, uid: $session, created_at: $created_at})
		CREATE (p)<-[r:` + "`%s`" + `]-(s)
		RETURN s.id AS id
	`
)

// The builders below splice an edge type into Cypher. Callers must pass a
// label that already passed graph.SanitizeLabel.

func CreateAttributeQuery(edgeType string) string {
	return fmt.Sprintf(createAttributeTemplate, edgeType)
}

func MergeRelationshipQuery(relation string) string {
	return fmt.Sprintf(mergeRelationshipTemplate, relation)
}

func CreateRelationshipQuery(relation string) string {
	return fmt.Sprintf(createRelationshipTemplate, relation)
}

func RelationshipExistsQuery(relation string) string {
	return fmt.Sprintf(relationshipExistsTemplate, relation)
}

func RelatedPeopleQuery(relation string) string {
	return fmt.Sprintf(relatedPeopleTemplate, relation)
}

func CreateSocialContactQuery(edgeType string) string {
	return fmt.Sprintf(createSocialContactTemplate, edgeType)
}
