// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - DocumentStore: Document and chunk persistence
//   - CollectionStore: Collection membership persistence
//   - VectorStore: Embedding persistence and similarity search
//   - EmbeddingService: Generates vector embeddings
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - RelationshipStore: Graph edges. Without it, graph retrieval is a no-op.
//   - LLMService: Answer generation. Without it, chat returns raw passages.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
